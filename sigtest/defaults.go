package sigtest

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Quantum-Override/sigma-test/logging"
)

// Report geometry for the built-in console output.
const (
	reportWidth     = 80
	nameColumn      = 40
	timestampFormat = "2006-01-02  15:04:05"
)

// consoleContext backs the built-in report callbacks. It tracks whether
// the "Running:" line is still open so the result can be appended to it
// when no debug output intervened.
type consoleContext struct {
	w      io.Writer
	set    *TestSet
	tc     *TestCase
	logger logging.Logger

	count   int
	verbose bool
	start   time.Time
	end     time.Time

	ranNoNewline bool
	hadDebug     bool
	runningLen   int
}

func newConsoleContext() *consoleContext {
	return &consoleContext{w: os.Stdout}
}

func (c *consoleContext) Bind(set *TestSet, tc *TestCase, logger logging.Logger) {
	c.set, c.tc, c.logger = set, tc, logger
	if set != nil {
		c.w = set.Output()
	}
}

// consoleFrom tolerates foreign contexts: a partial custom bundle that
// borrowed a default callback but kept its own context makes the
// default a no-op.
func consoleFrom(ctx any) *consoleContext {
	c, _ := ctx.(*consoleContext)
	return c
}

// newDefaultHooks builds the bundle used when nothing else is
// registered; fillDefaults supplies the callbacks.
func newDefaultHooks() *Hooks {
	return &Hooks{Name: "default", Context: newConsoleContext()}
}

func defaultCallbacks() *Hooks {
	return &Hooks{
		BeforeSet:     defaultBeforeSet,
		AfterSet:      defaultAfterSet,
		BeforeTest:    defaultBeforeTest,
		AfterTest:     defaultAfterTest,
		OnStartTest:   defaultOnStartTest,
		OnEndTest:     defaultOnEndTest,
		OnError:       defaultOnError,
		OnTestResult:  defaultOnTestResult,
		OnSetSummary:  defaultOnSetSummary,
		OnMemoryAlloc: func(int, uintptr, any) {},
		OnMemoryFree:  func(uintptr, any) {},
		OnDebugLog:    defaultOnDebugLog,
	}
}

func writeSeparator(w io.Writer, width int) {
	fmt.Fprintln(w, strings.Repeat("=", width))
}

func defaultBeforeSet(set *TestSet, ctx any) {
	c := consoleFrom(ctx)
	if c == nil || set == nil {
		return
	}
	header := fmt.Sprintf("[%d] %-25s : %4d : %20s",
		set.Sequence(), set.Name, set.Count, time.Now().Format(timestampFormat))
	fmt.Fprintf(c.w, "%-*s\n", reportWidth, header)
	writeSeparator(c.w, reportWidth)
}

func defaultAfterSet(set *TestSet, ctx any) {
	c := consoleFrom(ctx)
	if c == nil || set == nil {
		return
	}
	w := set.Output()
	writeSeparator(w, reportWidth)
	fmt.Fprintf(w, "[%d]     TESTS=%3d        PASS=%3d        FAIL=%3d        SKIP=%3d\n",
		set.Sequence(), set.Count, set.Passed, set.Failed, set.Skipped)
}

func defaultBeforeTest(ctx any) {
	if c := consoleFrom(ctx); c != nil {
		c.count++
	}
}

func defaultAfterTest(ctx any) {
	if c := consoleFrom(ctx); c != nil {
		c.count--
	}
}

func defaultOnStartTest(ctx any) {
	c := consoleFrom(ctx)
	if c == nil || c.tc == nil {
		return
	}
	c.start = time.Now()
	c.end = time.Time{}
	// Keep the line open so the result can land on it.
	line := fmt.Sprintf("Running: %-*s", nameColumn, c.tc.Name)
	fmt.Fprint(c.w, line)
	c.ranNoNewline = true
	c.hadDebug = false
	c.runningLen = len(line)
}

func defaultOnEndTest(ctx any) {
	if c := consoleFrom(ctx); c != nil {
		c.end = time.Now()
	}
}

func defaultOnDebugLog(line string, ctx any) {
	c := consoleFrom(ctx)
	if c == nil {
		return
	}
	if c.ranNoNewline {
		fmt.Fprintln(c.w)
		c.ranNoNewline = false
		c.hadDebug = true
	}
	fmt.Fprintf(c.w, "  - %s\n", line)
}

func defaultOnError(message string, ctx any) {
	c := consoleFrom(ctx)
	if c == nil || !c.verbose || c.set == nil || c.set.current == nil {
		return
	}
	fmt.Fprintf(c.w, "Error in test [%s]: %s\n", c.set.current.Name, message)
}

func defaultOnTestResult(set *TestSet, tc *TestCase, ctx any) {
	c := consoleFrom(ctx)
	if c == nil || set == nil || tc == nil {
		return
	}
	w := set.Output()
	elapsed := float64(c.end.Sub(c.start).Nanoseconds()) / 1e3
	result := fmt.Sprintf("%.3f µs [%s]", elapsed, tc.Result.State)

	failMessage := ""
	if tc.Result.State == Fail && tc.Result.Message != "" {
		failMessage = tc.Result.Message
	}

	if c.ranNoNewline && !c.hadDebug && failMessage == "" {
		// No debug output and nothing to report: append the result to
		// the open Running line.
		pad := reportWidth - (c.runningLen + len(result))
		if pad < 0 {
			pad = 0
		}
		fmt.Fprintf(w, "%*s%s\n", pad, "", result)
	} else {
		if c.ranNoNewline {
			fmt.Fprintln(w)
		}
		if failMessage != "" {
			fmt.Fprintf(w, "  - %s\n", failMessage)
		}
		pad := reportWidth - len(result)
		if pad < 0 {
			pad = 0
		}
		fmt.Fprintf(w, "%*s%s\n", pad, "", result)
	}

	c.ranNoNewline = false
	c.hadDebug = false
	c.runningLen = 0
}

func defaultOnSetSummary(set *TestSet, summary SetSummary, ctx any) {
	c := consoleFrom(ctx)
	if c == nil || set == nil {
		return
	}
	w := set.Output()
	header := "===== Memory Allocations Report "
	fmt.Fprintf(w, "\n%s%s\n", header, strings.Repeat("=", reportWidth-len(header)))
	if leaks := summary.Leaks(); leaks > 0 {
		fmt.Fprintf(w, "WARNING: MEMORY LEAK: %d unfreed allocation(s)\n", leaks)
	} else if summary.Allocs > 0 {
		fmt.Fprintf(w, "Memory clean: all %d allocations freed.\n", summary.Allocs)
	}
	fmt.Fprintf(w, "  Total allocs:                %d\n", summary.Allocs)
	fmt.Fprintf(w, "  Total frees:                 %d\n", summary.Frees)
}
