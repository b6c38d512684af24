// Package consolehooks provides a colorized console report bundle. It
// mirrors the built-in report layout but renders PASS, FAIL and SKIP
// tags in green, red and yellow.
package consolehooks

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/Quantum-Override/sigma-test/logging"
	"github.com/Quantum-Override/sigma-test/sigtest"
)

const (
	reportWidth = 80
	nameColumn  = 40
)

var (
	passTag = color.New(color.FgGreen).SprintFunc()
	failTag = color.New(color.FgRed, color.Bold).SprintFunc()
	skipTag = color.New(color.FgYellow).SprintFunc()
)

type reportContext struct {
	w       io.Writer
	set     *sigtest.TestSet
	tc      *sigtest.TestCase
	logger  logging.Logger
	verbose bool

	start      time.Time
	openLine   bool
	hadDebug   bool
	runningLen int
}

// Bind keeps the active set, case and logger current. Called by the
// runner before every hook dispatch.
func (c *reportContext) Bind(set *sigtest.TestSet, tc *sigtest.TestCase, logger logging.Logger) {
	c.set = set
	c.tc = tc
	c.logger = logger
	if set != nil {
		c.w = set.Output()
	}
}

func from(ctx any) *reportContext {
	if c, ok := ctx.(*reportContext); ok {
		return c
	}
	return &reportContext{w: os.Stdout}
}

// colored renders a state tag with its color.
func colored(state sigtest.TestState) string {
	s := state.String()
	switch state {
	case sigtest.Pass:
		return passTag(s)
	case sigtest.Fail:
		return failTag(s)
	case sigtest.Skip:
		return skipTag(s)
	}
	return s
}

// New builds the bundle. Verbose enables per-assertion error lines.
func New(verbose bool) *sigtest.Hooks {
	ctx := &reportContext{w: os.Stdout, verbose: verbose}
	h := &sigtest.Hooks{
		Name:    "console-color",
		Context: ctx,

		BeforeSet: func(set *sigtest.TestSet, hctx any) {
			c := from(hctx)
			header := fmt.Sprintf("[%d] %-25s : %4d : %20s",
				set.Sequence(), set.Name, set.Count,
				time.Now().Format("2006-01-02  15:04:05"))
			fmt.Fprintf(c.w, "%-*s\n", reportWidth, header)
			fmt.Fprintln(c.w, strings.Repeat("=", reportWidth))
		},

		AfterSet: func(set *sigtest.TestSet, hctx any) {
			c := from(hctx)
			fmt.Fprintln(c.w, strings.Repeat("=", reportWidth))
			fmt.Fprintf(c.w, "[%d]     TESTS=%3d        PASS=%3d        FAIL=%3d        SKIP=%3d\n",
				set.Sequence(), set.Count, set.Passed, set.Failed, set.Skipped)
		},

		OnStartTest: func(hctx any) {
			c := from(hctx)
			line := fmt.Sprintf("Running: %-*s", nameColumn, c.tc.Name)
			fmt.Fprint(c.w, line)
			c.runningLen = len(line)
			c.start = time.Now()
			c.openLine = true
			c.hadDebug = false
		},

		OnEndTest: func(hctx any) {},

		OnDebugLog: func(line string, hctx any) {
			c := from(hctx)
			if c.openLine {
				fmt.Fprintln(c.w)
				c.openLine = false
			}
			c.hadDebug = true
			fmt.Fprintf(c.w, "  - %s\n", line)
		},

		OnError: func(msg string, hctx any) {
			c := from(hctx)
			if !c.verbose {
				return
			}
			if c.openLine {
				fmt.Fprintln(c.w)
				c.openLine = false
			}
			fmt.Fprintf(c.w, "  ! %s\n", failTag(msg))
		},

		OnTestResult: func(set *sigtest.TestSet, tc *sigtest.TestCase, hctx any) {
			c := from(hctx)
			elapsed := float64(time.Since(c.start).Nanoseconds()) / 1e3
			plain := fmt.Sprintf("%.3f µs [%s]", elapsed, tc.Result.State)
			result := fmt.Sprintf("%.3f µs [%s]", elapsed, colored(tc.Result.State))
			needsBreak := c.hadDebug || (tc.Result.State != sigtest.Pass && tc.Result.Message != "")
			if c.openLine && !needsBreak {
				pad := reportWidth - (c.runningLen + len(plain))
				if pad < 1 {
					pad = 1
				}
				fmt.Fprintf(c.w, "%*s%s\n", pad, "", result)
			} else {
				if c.openLine {
					fmt.Fprintln(c.w)
				}
				if tc.Result.State != sigtest.Pass && tc.Result.Message != "" {
					for _, line := range strings.Split(tc.Result.Message, "\n") {
						fmt.Fprintf(c.w, "  - %s\n", strings.TrimLeft(line, " -"))
					}
				}
				pad := reportWidth - len(plain)
				if pad < 1 {
					pad = 1
				}
				fmt.Fprintf(c.w, "%*s%s\n", pad, "", result)
			}
			c.openLine = false
		},

		OnSetSummary: func(set *sigtest.TestSet, s sigtest.SetSummary, hctx any) {
			c := from(hctx)
			header := "===== Memory Allocations Report "
			fmt.Fprintf(c.w, "\n%s%s\n", header, strings.Repeat("=", reportWidth-len(header)))
			if leaks := s.Leaks(); leaks > 0 {
				fmt.Fprintf(c.w, "%s: %d allocations not freed\n",
					skipTag("WARNING"), leaks)
			} else {
				fmt.Fprintf(c.w, "All allocations freed\n")
			}
			fmt.Fprintf(c.w, "Total allocs: %d\n", s.Allocs)
			fmt.Fprintf(c.w, "Total frees:  %d\n", s.Frees)
		},
	}
	return h
}
