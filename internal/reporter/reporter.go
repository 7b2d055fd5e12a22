package reporter

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"hervor/internal/executor"
	"hervor/internal/ir"
)

// ANSI palette indices, so output follows the user's terminal theme.
const (
	colorRed   = lipgloss.Color("1")
	colorGreen = lipgloss.Color("2")
	colorBlue  = lipgloss.Color("4")
	colorGrey  = lipgloss.Color("8")
)

// Console prints the interleaved group/case stream to a terminal.
// Tabs and carriage returns are written outside of styled spans since
// lipgloss expands tabs inside Render.
type Console struct {
	w io.Writer

	group   lipgloss.Style
	pending lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
}

var _ executor.Reporter = (*Console)(nil)

type ConsoleOption func(*lipgloss.Renderer)

// WithColor forces colored (true) or plain (false) output instead of
// detecting it from the writer.
func WithColor(enabled bool) ConsoleOption {
	return func(r *lipgloss.Renderer) {
		if enabled {
			r.SetColorProfile(termenv.ANSI)
		} else {
			r.SetColorProfile(termenv.Ascii)
		}
	}
}

func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	r := lipgloss.NewRenderer(w)
	for _, o := range opts {
		o(r)
	}
	return &Console{
		w:       w,
		group:   r.NewStyle().Foreground(colorBlue),
		pending: r.NewStyle().Foreground(colorGrey),
		pass:    r.NewStyle().Foreground(colorGreen),
		fail:    r.NewStyle().Foreground(colorRed),
	}
}

func (c *Console) StartGroup(name string) {
	fmt.Fprintln(c.w, c.group.Render(name))
}

func (c *Console) StartCase(_ string, tc ir.TestCase) {
	fmt.Fprint(c.w, "\t"+c.pending.Render(tc.Name+" Testing"))
}

func (c *Console) FinishCase(_ string, tc ir.TestCase, res executor.CaseResult) {
	if res.Passed {
		fmt.Fprintln(c.w, "\r\t"+c.pass.Render(tc.Name+" Passed!"))
		return
	}
	fmt.Fprintln(c.w, "\r\t"+c.fail.Render(tc.Name+" Failed!"))
}

func (c *Console) Finish(s executor.Summary) {
	style := c.pass
	if s.Failed > 0 {
		style = c.fail
	}
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, style.Bold(true).Render(fmt.Sprintf("%d passed, %d failed, %d total", s.Passed, s.Failed, s.Total)))
}
