package contract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	"hervor/internal/ir"
)

var ErrUnmatched = errors.New("cases not described by contract")

type Validator struct {
	doc    *openapi3.T
	router routers.Router
}

func LoadFromFile(path string) (*Validator, error) {
	loader := &openapi3.Loader{IsExternalRefsAllowed: true}
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return build(doc)
}

func LoadFromBytes(b []byte) (*Validator, error) {
	loader := &openapi3.Loader{IsExternalRefsAllowed: true}
	doc, err := loader.LoadFromData(b)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return build(doc)
}

func build(doc *openapi3.T) (*Validator, error) {
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate spec: %w", err)
	}
	// Endpoints are relative to the base URI, so match on path alone.
	doc.Servers = nil
	r, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	return &Validator{doc: doc, router: r}, nil
}

// Mismatch is a case whose method and endpoint resolve to no operation.
type Mismatch struct {
	Group    string
	Case     string
	Method   string
	Endpoint string
	Reason   string
}

type Report struct {
	Unmatched []Mismatch
	Covered   map[string]map[string]bool // method -> pathTemplate -> true
}

// Err returns nil when every case matched, else an ErrUnmatched listing them.
func (r Report) Err() error {
	if len(r.Unmatched) == 0 {
		return nil
	}
	var b strings.Builder
	for _, m := range r.Unmatched {
		fmt.Fprintf(&b, "\n  group %q case %q: %s %s: %s", m.Group, m.Case, m.Method, m.Endpoint, m.Reason)
	}
	return fmt.Errorf("%w (%d):%s", ErrUnmatched, len(r.Unmatched), b.String())
}

// Check resolves every case of the bundle against the contract without
// touching the network.
func (v *Validator) Check(test *ir.Test) Report {
	rep := Report{Covered: map[string]map[string]bool{}}
	for _, g := range test.TestGroups {
		for _, tc := range g.TestCases {
			route, err := v.findRoute(tc.Method, tc.Endpoint)
			if err != nil {
				rep.Unmatched = append(rep.Unmatched, Mismatch{
					Group:    g.Name,
					Case:     tc.Name,
					Method:   tc.Method,
					Endpoint: tc.Endpoint,
					Reason:   err.Error(),
				})
				continue
			}
			if rep.Covered[route.Method] == nil {
				rep.Covered[route.Method] = map[string]bool{}
			}
			rep.Covered[route.Method][route.Path] = true
		}
	}
	return rep
}

func (v *Validator) findRoute(method, endpoint string) (*routers.Route, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	route, _, err := v.router.FindRoute(&http.Request{Method: method, URL: u})
	if err != nil {
		return nil, err
	}
	return route, nil
}

// ---- Coverage ----

type CoverageReport struct {
	Total        int
	Covered      int
	Percent      float64
	CoveredSet   []string
	UncoveredSet []string
}

// Coverage compares the operations in the contract with the covered set
// collected by Check.
func (v *Validator) Coverage(covered map[string]map[string]bool) CoverageReport {
	var rep CoverageReport
	for _, op := range v.operations() {
		rep.Total++
		method, path, _ := strings.Cut(op, " ")
		if covered[method][path] {
			rep.Covered++
			rep.CoveredSet = append(rep.CoveredSet, op)
		} else {
			rep.UncoveredSet = append(rep.UncoveredSet, op)
		}
	}
	sort.Strings(rep.CoveredSet)
	sort.Strings(rep.UncoveredSet)
	rep.Percent = pct(rep.Covered, rep.Total)
	return rep
}

func (v *Validator) operations() []string {
	var out []string
	if v.doc == nil || v.doc.Paths == nil {
		return out
	}
	for p, pi := range v.doc.Paths.Map() {
		if pi == nil {
			continue
		}
		for method := range pi.Operations() {
			out = append(out, strings.ToUpper(method)+" "+p)
		}
	}
	return out
}

func pct(n, d int) float64 {
	if d == 0 {
		return 100.0
	}
	return float64(n) * 100.0 / float64(d)
}
