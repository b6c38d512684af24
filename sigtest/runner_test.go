package sigtest

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Quantum-Override/sigma-test/memtrack"
)

// recording is a hook context that logs every callback invocation, so
// tests can assert on the exact lifecycle sequence.
type recording struct {
	events    []string
	summaries []SetSummary
}

func (r *recording) log(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

// newRecordingHooks covers every callback so none of the console
// defaults are backfilled.
func newRecordingHooks() (*Hooks, *recording) {
	rec := &recording{}
	h := &Hooks{
		Name:    "recording",
		Context: rec,
		BeforeSet: func(set *TestSet, ctx any) {
			rec.log("before_set:%s", set.Name)
		},
		AfterSet: func(set *TestSet, ctx any) {
			rec.log("after_set:%s", set.Name)
		},
		BeforeTest:  func(ctx any) { rec.log("before_test") },
		AfterTest:   func(ctx any) { rec.log("after_test") },
		OnStartTest: func(ctx any) { rec.log("start_test") },
		OnEndTest:   func(ctx any) { rec.log("end_test") },
		OnError:     func(msg string, ctx any) { rec.log("error") },
		OnTestResult: func(set *TestSet, tc *TestCase, ctx any) {
			rec.log("result:%s:%s", tc.Name, tc.Result.State)
		},
		OnSetSummary: func(set *TestSet, s SetSummary, ctx any) {
			rec.log("set_summary:%s", set.Name)
			rec.summaries = append(rec.summaries, s)
		},
		OnMemoryAlloc: func(size int, ptr uintptr, ctx any) { rec.log("alloc:%d", size) },
		OnMemoryFree:  func(ptr uintptr, ctx any) { rec.log("free") },
		OnDebugLog:    func(line string, ctx any) { rec.log("debug:%s", line) },
	}
	return h, rec
}

func TestRunnerLifecycleSequence(t *testing.T) {
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.Case("ok", func(st *T) { st.IsTrue(true, "") })

	hooks, rec := newRecordingHooks()
	results := RunWithOptions(r, hooks, Options{Summary: io.Discard})

	assert.Equal(t, []string{
		"before_set:suite",
		"before_test",
		"start_test",
		"end_test",
		"result:ok:PASS",
		"after_test",
		"after_set:suite",
		"set_summary:suite",
	}, rec.events)
	assert.Equal(t, 1, results.Tests)
	assert.Equal(t, 1, results.Passed)
	assert.True(t, results.OK())
	assert.NotEmpty(t, results.RunID)
}

func TestResultIsProcessedBeforeTeardown(t *testing.T) {
	var order []string
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.Teardown(func() { order = append(order, "teardown") })
	r.Case("ok", func(st *T) { st.IsTrue(true, "") })

	hooks, _ := newRecordingHooks()
	hooks.OnTestResult = func(set *TestSet, tc *TestCase, ctx any) {
		order = append(order, "result")
	}
	RunWithOptions(r, hooks, Options{Summary: io.Discard})

	assert.Equal(t, []string{"result", "teardown"}, order)
}

func TestSetupAndTeardownRunAroundEveryCase(t *testing.T) {
	var order []string
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.Setup(func() { order = append(order, "setup") })
	r.Teardown(func() { order = append(order, "teardown") })
	r.Case("a", func(st *T) { order = append(order, "a") })
	r.Case("b", func(st *T) { order = append(order, "b") })

	hooks, _ := newRecordingHooks()
	RunWithOptions(r, hooks, Options{Summary: io.Discard})

	assert.Equal(t, []string{
		"setup", "a", "teardown",
		"setup", "b", "teardown",
	}, order)
}

func TestCountersAndExitStatusAcrossSets(t *testing.T) {
	r := NewRegistry()
	r.Set("alpha", nil, nil)
	r.Case("pass", func(st *T) { st.IsTrue(true, "") })
	r.Case("fail", func(st *T) { st.IsTrue(false, "") })
	r.Set("beta", nil, nil)
	r.Case("skip", func(st *T) { st.Skip("") })
	r.Case("pass", func(st *T) {})

	hooks, _ := newRecordingHooks()
	results := RunWithOptions(r, hooks, Options{Summary: io.Discard})

	assert.Equal(t, 2, results.Sets)
	assert.Equal(t, 4, results.Tests)
	assert.Equal(t, 2, results.Passed)
	assert.Equal(t, 1, results.Failed)
	assert.Equal(t, 1, results.Skipped)
	assert.False(t, results.OK())
	assert.Equal(t, 1, results.ExitCode())
	assert.Equal(t, []string{"alpha/fail"}, results.FailedCases)
}

func TestSetsRunNewestFirstWithSequenceNumbers(t *testing.T) {
	r := NewRegistry()
	first := r.Set("first", nil, nil)
	r.Case("a", func(st *T) {})
	second := r.Set("second", nil, nil)
	r.Case("b", func(st *T) {})

	hooks, rec := newRecordingHooks()
	RunWithOptions(r, hooks, Options{Summary: io.Discard})

	assert.Equal(t, "before_set:second", rec.events[0])
	assert.Equal(t, 1, second.Sequence())
	assert.Equal(t, 2, first.Sequence())
}

func TestExpectedFailureInversion(t *testing.T) {
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.FailCase("fails_as_expected", func(st *T) { st.IsTrue(false, "") })
	r.FailCase("passes_unexpectedly", func(st *T) { st.IsTrue(true, "") })

	hooks, _ := newRecordingHooks()
	results := RunWithOptions(r, hooks, Options{Summary: io.Discard})

	cases := r.Sets()[0].Cases()
	assert.Equal(t, Pass, cases[0].Result.State)
	assert.Equal(t, "Expected failure occurred", cases[0].Result.Message)
	assert.Equal(t, Fail, cases[1].Result.State)
	assert.Equal(t, "Expected failure but passed", cases[1].Result.Message)
	assert.Equal(t, []string{"suite/passes_unexpectedly"}, results.FailedCases)
}

func TestExpectedThrowInversion(t *testing.T) {
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.ThrowCase("throws_as_expected", func(st *T) {
		var s []int
		_ = s[0]
	})
	r.ThrowCase("returns_unexpectedly", func(st *T) {})

	hooks, _ := newRecordingHooks()
	RunWithOptions(r, hooks, Options{Summary: io.Discard})

	cases := r.Sets()[0].Cases()
	assert.Equal(t, Pass, cases[0].Result.State)
	assert.Equal(t, "Expected throw occurred", cases[0].Result.Message)
	assert.Equal(t, Fail, cases[1].Result.State)
	assert.Equal(t, "Expected throw but passed", cases[1].Result.Message)
}

func TestSkippedCasesAreNeverInverted(t *testing.T) {
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.FailCase("skipped", func(st *T) { st.Skip("") })

	hooks, _ := newRecordingHooks()
	results := RunWithOptions(r, hooks, Options{Summary: io.Discard})

	assert.Equal(t, Skip, r.Sets()[0].Cases()[0].Result.State)
	assert.Equal(t, 1, results.Skipped)
	assert.True(t, results.OK())
}

func TestEmptyFailureMessageBecomesUnknown(t *testing.T) {
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.Case("silent", func(st *T) { st.setResult(Fail, "") })

	hooks, _ := newRecordingHooks()
	RunWithOptions(r, hooks, Options{Summary: io.Discard})

	tc := r.Sets()[0].Cases()[0]
	assert.Equal(t, Fail, tc.Result.State)
	assert.Equal(t, "Unknown", tc.Result.Message)
}

func TestFilteredCasesAreSkippedWithoutRunning(t *testing.T) {
	ran := false
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.Case("wanted", func(st *T) {})
	r.Case("unwanted", func(st *T) { ran = true })

	hooks, _ := newRecordingHooks()
	results := RunWithOptions(r, hooks, Options{
		Summary: io.Discard,
		Filter: func(setName, caseName string) bool {
			return caseName == "wanted"
		},
	})

	assert.False(t, ran, "a filtered case body must not run")
	assert.Equal(t, 1, results.Passed)
	assert.Equal(t, 1, results.Skipped)
	tc := r.Sets()[0].Cases()[1]
	assert.Equal(t, Skip, tc.Result.State)
	assert.Equal(t, "excluded by filter parameters", tc.Result.Message)
}

func TestUnexpectedPanicFiresOnError(t *testing.T) {
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.Case("panics", func(st *T) { panic("boom") })

	hooks, rec := newRecordingHooks()
	RunWithOptions(r, hooks, Options{Summary: io.Discard})

	assert.Contains(t, rec.events, "error")
	tc := r.Sets()[0].Cases()[0]
	assert.Equal(t, Fail, tc.Result.State)
	assert.Contains(t, tc.Result.Message, "boom")
}

func TestDebugLinesReachTheBundle(t *testing.T) {
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.Case("chatty", func(st *T) {
		st.Debugf("value is %d", 42)
	})

	hooks, rec := newRecordingHooks()
	RunWithOptions(r, hooks, Options{Summary: io.Discard})

	assert.Contains(t, rec.events, "debug:value is 42")
}

func TestSetSummaryCountsAllocations(t *testing.T) {
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.Case("allocates", func(st *T) {
		buf := memtrack.Alloc(32)
		memtrack.Free(buf)
	})

	hooks, rec := newRecordingHooks()
	RunWithOptions(r, hooks, Options{Summary: io.Discard})

	require.Len(t, rec.summaries, 1)
	s := rec.summaries[0]
	assert.Equal(t, uint64(1), s.Allocs)
	assert.Equal(t, uint64(1), s.Frees)
	assert.Equal(t, uint64(0), s.Leaks())
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Contains(t, rec.events, "alloc:32")
	assert.Contains(t, rec.events, "free")
}

func TestSetCleanupRunsAfterTheSummary(t *testing.T) {
	var order []string
	r := NewRegistry()
	r.Set("suite", nil, func() { order = append(order, "cleanup") })
	r.Case("ok", func(st *T) {})

	hooks, _ := newRecordingHooks()
	hooks.OnSetSummary = func(set *TestSet, s SetSummary, ctx any) {
		order = append(order, "summary")
	}
	RunWithOptions(r, hooks, Options{Summary: io.Discard})

	assert.Equal(t, []string{"summary", "cleanup"}, order)
}

func TestRunSummaryFooter(t *testing.T) {
	var summary bytes.Buffer
	r := NewRegistry()
	r.Set("suite", nil, nil)
	r.Case("pass", func(st *T) {})
	r.Case("fail", func(st *T) { st.Fail("") })

	hooks, _ := newRecordingHooks()
	RunWithOptions(r, hooks, Options{Summary: &summary})

	out := summary.String()
	assert.Contains(t, out, "Tests run: 2, Passed: 1, Failed: 1, Skipped: 0")
	assert.Contains(t, out, "Total test sets registered: 1")
	assert.Contains(t, out, "Failed cases:\n  - suite/fail")
}

func TestDefaultConsoleReportGeometry(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry()
	r.Set("report", func() io.Writer { return &buf }, nil)
	r.Case("short_case", func(st *T) {})

	RunWithOptions(r, nil, Options{Summary: io.Discard})

	lines := strings.Split(buf.String(), "\n")
	require.Greater(t, len(lines), 4)

	header := lines[0]
	assert.Len(t, header, reportWidth)
	assert.True(t, strings.HasPrefix(header, "[1] report"))
	assert.Equal(t, strings.Repeat("=", reportWidth), lines[1])

	running := lines[2]
	assert.True(t, strings.HasPrefix(running, "Running: short_case"))
	assert.Len(t, running, reportWidth)
	assert.True(t, strings.HasSuffix(running, "[PASS]"))

	assert.Equal(t, strings.Repeat("=", reportWidth), lines[3])
	assert.Contains(t, lines[4], "TESTS=  1")
	assert.Contains(t, lines[4], "PASS=  1")
}

func TestDefaultReportBreaksLineForFailureMessages(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry()
	r.Set("report", func() io.Writer { return &buf }, nil)
	r.Case("failing", func(st *T) { st.IsTrue(false, "") })

	RunWithOptions(r, nil, Options{Summary: io.Discard})

	out := buf.String()
	assert.Contains(t, out, "  - Expected true, but was false\n")
	// The result lands on its own right-justified line.
	for _, line := range strings.Split(out, "\n") {
		if strings.HasSuffix(line, "[FAIL]") {
			assert.Len(t, line, reportWidth)
			assert.True(t, strings.HasPrefix(line, " "))
		}
	}
}

func TestDefaultReportMemorySection(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry()
	r.Set("report", func() io.Writer { return &buf }, nil)
	r.Case("leaky", func(st *T) { memtrack.Alloc(8) })

	RunWithOptions(r, nil, Options{Summary: io.Discard})

	out := buf.String()
	assert.Contains(t, out, "===== Memory Allocations Report ")
	assert.Contains(t, out, "WARNING: MEMORY LEAK: 1 unfreed allocation(s)")
}
