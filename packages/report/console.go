package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

type Console struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*Console)

func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.noColor {
		color.NoColor = true
	}
	return c
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(c *Console) {
		c.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(c *Console) {
		c.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(c *Console) {
		c.noColor = nc
	}
}

// Results prints one line per fired request plus the batch error, if any.
// Nil entries are requests that produced no result.
func (c *Console) Results(results []*wire.Result, batchErr error) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, r := range results {
		if r == nil {
			fmt.Fprintf(c.writer, "  %s (no result)\n", red("x"))
			continue
		}
		fmt.Fprintf(c.writer, "  %s %s %s %s\n",
			green("✓"),
			r.SpecName,
			cyan(fmt.Sprintf("(%dms)", r.Response.DurationMs())),
			attemptNote(r.Attempts),
		)
		if c.verbose {
			fmt.Fprintf(c.writer, "      %s %s -> %s\n", r.Request.Method, r.Request.URL, r.Response.Status)
		}
	}

	if batchErr != nil {
		fmt.Fprintf(c.writer, "\n%s %v\n", red("FAIL"), batchErr)
	}
}

// Comments prints batch or request commentary lines.
func (c *Console) Comments(comments []string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	for _, text := range comments {
		fmt.Fprintf(c.writer, "  %s %s\n", yellow("#"), text)
	}
}

// Summary prints aggregate latency percentiles and counts.
func (c *Console) Summary(s *Summary) {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(c.writer, "\n%s\n", bold("Summary"))
	fmt.Fprintf(c.writer, "  requests: %d (%d failed), attempts: %d\n", s.Count(), s.Failed(), s.TotalAttempts())
	if s.Count() > s.Failed() {
		fmt.Fprintf(c.writer, "  latency: p50=%v p95=%v p99=%v\n", s.P50(), s.P95(), s.P99())
	}
}

func (c *Console) Info(format string, args ...any) {
	fmt.Fprintf(c.writer, format+"\n", args...)
}

func (c *Console) Error(format string, args ...any) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(c.writer, "%s %s\n", red("error:"), fmt.Sprintf(format, args...))
}

func attemptNote(attempts int) string {
	if attempts <= 1 {
		return ""
	}
	return fmt.Sprintf("[%d attempts]", attempts)
}
