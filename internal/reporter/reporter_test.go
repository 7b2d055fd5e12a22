package reporter_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"hervor/internal/executor"
	"hervor/internal/ir"
	"hervor/internal/reporter"
)

func TestConsole_PlainStream(t *testing.T) {
	var buf bytes.Buffer
	c := reporter.NewConsole(&buf, reporter.WithColor(false))

	ok := ir.TestCase{Name: "c1"}
	bad := ir.TestCase{Name: "c2"}

	c.StartGroup("Users")
	c.StartCase("Users", ok)
	c.FinishCase("Users", ok, executor.CaseResult{Passed: true})
	c.StartCase("Users", bad)
	c.FinishCase("Users", bad, executor.CaseResult{Passed: false})
	c.Finish(executor.Summary{Total: 2, Passed: 1, Failed: 1})

	want := "Users\n" +
		"\tc1 Testing\r\tc1 Passed!\n" +
		"\tc2 Testing\r\tc2 Failed!\n" +
		"\n" +
		"1 passed, 1 failed, 2 total\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestConsole_ForcedColor(t *testing.T) {
	var buf bytes.Buffer
	c := reporter.NewConsole(&buf, reporter.WithColor(true))

	tc := ir.TestCase{Name: "c1"}
	c.StartGroup("G")
	c.FinishCase("G", tc, executor.CaseResult{Passed: true})
	c.FinishCase("G", tc, executor.CaseResult{Passed: false})

	out := buf.String()
	for _, code := range []string{"\x1b[34m", "\x1b[32m", "\x1b[31m"} {
		if !strings.Contains(out, code) {
			t.Fatalf("expected %q in colored output, got %q", code, out)
		}
	}
	if !strings.Contains(out, "\r\t") {
		t.Fatalf("carriage return must stay outside styled spans: %q", out)
	}
}

func TestConsole_NonTTYDefaultsToPlain(t *testing.T) {
	var buf bytes.Buffer
	c := reporter.NewConsole(&buf)
	c.StartGroup("G")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no escape codes for a non-terminal writer, got %q", buf.String())
	}
}
