package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"hervor/internal/ir"
	"hervor/internal/logging"
)

var ErrNoBaseURI = errors.New("no base URI provided and no default URI")

// ---- Results model ----

type SuiteResult struct {
	Passed     bool
	Groups     []GroupResult
	DurationMs float64
}

type GroupResult struct {
	Name  string
	Cases []CaseResult
}

type CaseResult struct {
	Name       string
	Method     string
	URL        string
	StatusCode int
	WantStatus int
	StatusOK   bool
	BodyOK     bool // true when no body check applies
	Passed     bool
	DurationMs float64
}

type Summary struct {
	Total  int
	Passed int
	Failed int
}

// Summary counts case outcomes across all groups.
func (r *SuiteResult) Summary() Summary {
	var s Summary
	for _, g := range r.Groups {
		for _, c := range g.Cases {
			s.Total++
			if c.Passed {
				s.Passed++
			} else {
				s.Failed++
			}
		}
	}
	return s
}

// Reporter receives progress events in execution order.
type Reporter interface {
	StartGroup(name string)
	StartCase(group string, tc ir.TestCase)
	FinishCase(group string, tc ir.TestCase, res CaseResult)
	Finish(s Summary)
}

type NopReporter struct{}

func (NopReporter) StartGroup(string)                          {}
func (NopReporter) StartCase(string, ir.TestCase)              {}
func (NopReporter) FinishCase(string, ir.TestCase, CaseResult) {}
func (NopReporter) Finish(Summary)                             {}

// ---- Runner ----

type Runner struct {
	httpClient *http.Client
	reporter   Reporter
	log        *slog.Logger
}

// New returns a Runner whose client has no overall timeout and follows
// redirects the default way.
func New() *Runner {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &Runner{
		httpClient: &http.Client{Transport: tr},
		reporter:   NopReporter{},
		log:        logging.Discard(),
	}
}

func (r *Runner) WithClient(c *http.Client) *Runner {
	if c != nil {
		r.httpClient = c
	}
	return r
}

func (r *Runner) WithReporter(rep Reporter) *Runner {
	if rep == nil {
		rep = NopReporter{}
	}
	r.reporter = rep
	return r
}

func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	if l != nil {
		r.log = l
	}
	return r
}

// ResolveBaseURI picks the override when non-empty, else the bundle default.
func ResolveBaseURI(test *ir.Test, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if test != nil && test.DefaultURI != "" {
		return test.DefaultURI, nil
	}
	return "", ErrNoBaseURI
}

// ---- Suite execution ----

// Run conducts every case in bundle order. The first transport error aborts
// the run; the partial result collected so far is returned with it.
func (r *Runner) Run(ctx context.Context, test *ir.Test, override string) (*SuiteResult, error) {
	if test == nil {
		return nil, errors.New("nil test")
	}
	base, err := ResolveBaseURI(test, override)
	if err != nil {
		return nil, err
	}
	r.log.Debug("resolved base URI", "base_uri", base, "override", override != "")

	start := time.Now()
	res := &SuiteResult{Passed: true, Groups: make([]GroupResult, 0, len(test.TestGroups))}

	for _, g := range test.TestGroups {
		r.reporter.StartGroup(g.Name)
		res.Groups = append(res.Groups, GroupResult{Name: g.Name})
		gr := &res.Groups[len(res.Groups)-1]

		for _, tc := range g.TestCases {
			r.reporter.StartCase(g.Name, tc)
			cr, err := r.Conduct(ctx, base, tc)
			if err != nil {
				res.Passed = false
				res.DurationMs = float64(time.Since(start).Milliseconds())
				return res, fmt.Errorf("group %q case %q: %w", g.Name, tc.Name, err)
			}
			if !cr.Passed {
				res.Passed = false
			}
			gr.Cases = append(gr.Cases, cr)
			r.reporter.FinishCase(g.Name, tc, cr)
		}
	}

	res.DurationMs = float64(time.Since(start).Milliseconds())
	if sum := res.Summary(); sum.Total > 0 {
		r.reporter.Finish(sum)
	}
	return res, nil
}

// Conduct sends one request for tc against baseURI and evaluates it.
func (r *Runner) Conduct(ctx context.Context, baseURI string, tc ir.TestCase) (CaseResult, error) {
	url := baseURI + tc.Endpoint

	start := time.Now()
	status, body, err := r.doRequest(ctx, tc.Method, url)
	elapsed := time.Since(start)
	if err != nil {
		return CaseResult{}, err
	}

	cr := Evaluate(tc, status, body)
	cr.URL = url
	cr.DurationMs = float64(elapsed.Milliseconds())

	r.log.Debug("case conducted",
		"case", tc.Name, "method", tc.Method, "url", url,
		"status", status, "want", tc.Status, "passed", cr.Passed, "duration", elapsed)
	return cr, nil
}

// Evaluate compares an observed response with the case expectations.
// The body is compared byte for byte, with no trimming.
func Evaluate(tc ir.TestCase, status int, body []byte) CaseResult {
	cr := CaseResult{
		Name:       tc.Name,
		Method:     tc.Method,
		StatusCode: status,
		WantStatus: tc.Status,
		StatusOK:   status == tc.Status,
		BodyOK:     true,
	}
	if tc.ExpectsBody() {
		cr.BodyOK = bytes.Equal(body, []byte(*tc.Output))
	}
	cr.Passed = cr.StatusOK && cr.BodyOK
	return cr
}

// ---- HTTP ----

func (r *Runner) doRequest(ctx context.Context, method, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, data, nil
}
