package ir

// Reserved top-level keys of a bundle document. Every other top-level key
// names a test group.
const (
	KeyName       = "Name"
	KeyDefaultURI = "Default URI"
)

// Case object keys.
const (
	KeyEndpoint = "Endpoint"
	KeyMethod   = "Method"
	KeyStatus   = "Status"
	KeyOutput   = "Output"
)

type Test struct {
	Name       string
	Variables  map[string]string // never populated
	DefaultURI string
	TestGroups []TestGroup
}

type TestGroup struct {
	Name      string
	TestCases []TestCase
}

type TestCase struct {
	Name     string
	Endpoint string
	Method   string
	Status   int
	// Output is the exact expected body. nil disables the body check.
	Output *string
}

// ExpectsBody reports whether the response body is compared.
func (tc TestCase) ExpectsBody() bool { return tc.Output != nil }

// CaseCount returns the number of cases across all groups.
func (t *Test) CaseCount() int {
	n := 0
	for _, g := range t.TestGroups {
		n += len(g.TestCases)
	}
	return n
}
