package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"hervor/internal/ir"
)

var ErrValidation = errors.New("validation error")

// FieldError locates a structural problem in a bundle document.
// Case is -1 for top-level keys, Group is empty outside of groups.
type FieldError struct {
	Key    string
	Group  string
	Case   int
	Line   int
	Reason string
}

func (e *FieldError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	b.WriteString(": ")
	if e.Group != "" {
		fmt.Fprintf(&b, "group %q", e.Group)
		if e.Case >= 0 {
			fmt.Fprintf(&b, " case[%d]", e.Case)
		}
		b.WriteString(": ")
	}
	if e.Key != "" {
		fmt.Fprintf(&b, "key %q: ", e.Key)
	}
	b.WriteString(e.Reason)
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	return b.String()
}

func (e *FieldError) Unwrap() error { return ErrValidation }

const (
	reasonMissing   = "missing required key"
	reasonDuplicate = "duplicate key"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

// ParseFile reads a bundle from disk and parses it.
func (p *Parser) ParseFile(path string) (*ir.Test, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.ParseBytes(data)
}

// ParseBytes parses a JSON bundle (any YAML 1.2 equivalent is accepted too)
// into IR. Group order follows key order in the document.
func (p *Parser) ParseBytes(b []byte) (*ir.Test, error) {
	if json.Valid(b) {
		b = unescapeSolidus(b)
	}
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FieldError{Case: -1, Reason: "empty document"}
		}
		return nil, fmt.Errorf("decode: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, &FieldError{Case: -1, Line: root.Line, Reason: "bundle must be an object"}
	}
	if err := checkDuplicates(root, "", -1); err != nil {
		return nil, err
	}

	test := &ir.Test{Variables: map[string]string{}}

	nameNode := lookup(root, ir.KeyName)
	if nameNode == nil {
		return nil, &FieldError{Key: ir.KeyName, Case: -1, Line: root.Line, Reason: reasonMissing}
	}
	name, err := stringValue(nameNode, ir.KeyName, "", -1)
	if err != nil {
		return nil, err
	}
	test.Name = name

	if n := lookup(root, ir.KeyDefaultURI); n != nil && !isNull(n) {
		uri, err := stringValue(n, ir.KeyDefaultURI, "", -1)
		if err != nil {
			return nil, err
		}
		test.DefaultURI = uri
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, &FieldError{Case: -1, Line: k.Line, Reason: "group name must be a string"}
		}
		if k.Value == ir.KeyName || k.Value == ir.KeyDefaultURI {
			continue
		}
		g, err := parseGroup(k.Value, v)
		if err != nil {
			return nil, err
		}
		test.TestGroups = append(test.TestGroups, g)
	}
	return test, nil
}

func parseGroup(name string, n *yaml.Node) (ir.TestGroup, error) {
	if n.Kind != yaml.SequenceNode {
		return ir.TestGroup{}, &FieldError{Group: name, Case: -1, Line: n.Line, Reason: "group must be an array of cases"}
	}
	g := ir.TestGroup{Name: name, TestCases: make([]ir.TestCase, 0, len(n.Content))}
	for i, c := range n.Content {
		tc, err := parseCase(name, i, c)
		if err != nil {
			return ir.TestGroup{}, err
		}
		g.TestCases = append(g.TestCases, tc)
	}
	return g, nil
}

func parseCase(group string, idx int, n *yaml.Node) (ir.TestCase, error) {
	if n.Kind != yaml.MappingNode {
		return ir.TestCase{}, &FieldError{Group: group, Case: idx, Line: n.Line, Reason: "case must be an object"}
	}
	if err := checkDuplicates(n, group, idx); err != nil {
		return ir.TestCase{}, err
	}

	var tc ir.TestCase
	for _, f := range []struct {
		key string
		dst *string
	}{
		{ir.KeyName, &tc.Name},
		{ir.KeyEndpoint, &tc.Endpoint},
		{ir.KeyMethod, &tc.Method},
	} {
		v := lookup(n, f.key)
		if v == nil {
			return ir.TestCase{}, &FieldError{Key: f.key, Group: group, Case: idx, Line: n.Line, Reason: reasonMissing}
		}
		s, err := stringValue(v, f.key, group, idx)
		if err != nil {
			return ir.TestCase{}, err
		}
		*f.dst = s
	}
	tc.Method = strings.ToUpper(tc.Method)

	sn := lookup(n, ir.KeyStatus)
	if sn == nil {
		return ir.TestCase{}, &FieldError{Key: ir.KeyStatus, Group: group, Case: idx, Line: n.Line, Reason: reasonMissing}
	}
	status, err := statusValue(sn)
	if err != nil {
		return ir.TestCase{}, &FieldError{Key: ir.KeyStatus, Group: group, Case: idx, Line: sn.Line, Reason: err.Error()}
	}
	tc.Status = status

	if on := lookup(n, ir.KeyOutput); on != nil && !isNull(on) {
		out, err := stringValue(on, ir.KeyOutput, group, idx)
		if err != nil {
			return ir.TestCase{}, err
		}
		tc.Output = &out
	}
	return tc, nil
}

// --- node helpers ---

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// checkDuplicates rejects a mapping that repeats a key.
func checkDuplicates(m *yaml.Node, group string, idx int) error {
	seen := make(map[string]bool, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := m.Content[i]
		if seen[k.Value] {
			return &FieldError{Key: k.Value, Group: group, Case: idx, Line: k.Line, Reason: reasonDuplicate}
		}
		seen[k.Value] = true
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func stringValue(n *yaml.Node, key, group string, idx int) (string, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return "", &FieldError{Key: key, Group: group, Case: idx, Line: n.Line, Reason: "must be a string"}
	}
	return n.Value, nil
}

// statusValue accepts an integer, or a float with no fractional part
// (200.0), since JSON does not distinguish the two.
func statusValue(n *yaml.Node) (int, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, errors.New("must be an integer")
	}
	switch n.ShortTag() {
	case "!!int":
		var v int
		if err := n.Decode(&v); err != nil {
			return 0, err
		}
		return v, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return 0, err
		}
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return 0, errors.New("must be an integer")
		}
		return int(f), nil
	}
	return 0, errors.New("must be an integer")
}

// unescapeSolidus drops the backslash of every \/ escape inside JSON
// strings. yaml.v3 rejects that escape although JSON allows it. Other
// escapes, including \\, are copied unchanged.
func unescapeSolidus(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\/`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	inString := false
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case !inString:
			if c == '"' {
				inString = true
			}
		case c == '"':
			inString = false
		case c == '\\' && i+1 < len(b):
			i++
			if b[i] != '/' {
				out = append(out, c)
			}
			c = b[i]
		}
		out = append(out, c)
	}
	return out
}
