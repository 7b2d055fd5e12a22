package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"hervor/internal/ir"
)

func TestIR_Basics(t *testing.T) {
	body := "pong"
	test := ir.Test{
		Name:       "Users API",
		Variables:  map[string]string{},
		DefaultURI: "http://localhost:8080",
		TestGroups: []ir.TestGroup{
			{
				Name: "Health",
				TestCases: []ir.TestCase{
					{Name: "ping", Endpoint: "/ping", Method: "GET", Status: 200, Output: &body},
					{Name: "missing", Endpoint: "/nope", Method: "GET", Status: 404},
				},
			},
			{Name: "Empty"},
		},
	}

	if diff := cmp.Diff("Users API", test.Name); diff != "" {
		t.Fatalf("name mismatch (-want +got):\n%s", diff)
	}
	if got, want := test.CaseCount(), 2; got != want {
		t.Fatalf("CaseCount = %d, want %d", got, want)
	}

	cases := test.TestGroups[0].TestCases
	if !cases[0].ExpectsBody() {
		t.Fatal("case with Output should expect a body")
	}
	if cases[1].ExpectsBody() {
		t.Fatal("case without Output must not expect a body")
	}
	if len(test.Variables) != 0 {
		t.Fatalf("variables = %v, want empty", test.Variables)
	}
}
