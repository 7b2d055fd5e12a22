package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"hervor/internal/contract"
	"hervor/internal/executor"
	"hervor/internal/logging"
	"hervor/internal/parser"
	"hervor/internal/reporter"
)

// Exit codes: any failed case is distinct from a fatal error.
const (
	exitOK     = 0
	exitFailed = 1
	exitError  = 2
)

var errCasesFailed = errors.New("one or more test cases failed")

type options struct {
	testPath string
	baseURI  string
	openapi  string
	noColor  bool
	logLevel string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errCasesFailed):
		return exitFailed
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "hervor",
		Short: "Declarative HTTP API test runner",
		Long: `hervor reads a JSON test bundle of named groups of test cases, sends one
HTTP request per case against a base URI and reports whether the observed
status code (and, when given, the exact response body) matched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTests(cmd.Context(), o, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.testPath, "test", "t", "", "Test file written in JSON")
	f.StringVarP(&o.baseURI, "base_uri", "b", "", "Base URL of the backend (empty falls back to the bundle's Default URI)")
	f.StringVar(&o.openapi, "openapi", "", "OpenAPI document every case must resolve against before running")
	f.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	f.StringVar(&o.logLevel, "log-level", "warn", "Log level for diagnostics on stderr: debug, info, warn, error")
	_ = cmd.MarkFlagRequired("test")
	_ = cmd.MarkFlagRequired("base_uri")

	return cmd
}

func runTests(ctx context.Context, o *options, stdout, stderr io.Writer) error {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	log := logging.New(stderr, level)

	test, err := parser.New().ParseFile(o.testPath)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	log.Info("bundle loaded", "name", test.Name, "groups", len(test.TestGroups), "cases", test.CaseCount())

	var (
		v      *contract.Validator
		checks contract.Report
	)
	if o.openapi != "" {
		v, err = contract.LoadFromFile(o.openapi)
		if err != nil {
			return fmt.Errorf("openapi load: %w", err)
		}
		checks = v.Check(test)
		if err := checks.Err(); err != nil {
			return fmt.Errorf("contract: %w", err)
		}
	}

	var copts []reporter.ConsoleOption
	if o.noColor {
		copts = append(copts, reporter.WithColor(false))
	}

	r := executor.New().
		WithReporter(reporter.NewConsole(stdout, copts...)).
		WithLogger(log)

	res, err := r.Run(ctx, test, o.baseURI)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	if v != nil {
		if err := reporter.WriteCoverage(stdout, v.Coverage(checks.Covered)); err != nil {
			return fmt.Errorf("write coverage: %w", err)
		}
	}

	if !res.Passed {
		return errCasesFailed
	}
	return nil
}
