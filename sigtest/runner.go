package sigtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Quantum-Override/sigma-test/fuzzing"
	"github.com/Quantum-Override/sigma-test/logging"
	"github.com/Quantum-Override/sigma-test/memtrack"
)

// runnerState enumerates the explicit execution states. The runner is a
// flat loop over these; every transition is made by a handler below.
type runnerState int

const (
	stateInit runnerState = iota
	stateSetLoop
	stateSetInit
	stateBeforeSet
	stateCaseLoop
	stateCaseInit
	stateBeforeTest
	stateSetupTest
	stateStartTest
	stateExecuteTest
	stateFuzzInit
	stateEndTest
	stateTeardownTest
	stateAfterTest
	stateAfterSet
	stateSummary
	stateDone
)

// Options tune a single run.
type Options struct {
	// Filter decides per case whether to execute it; filtered-out cases
	// are recorded SKIP without running their bodies.
	Filter Filter
	// Summary receives the whole-run footer. Defaults to os.Stdout.
	Summary io.Writer
	// Diagnostics receives framework-internal messages. Defaults to a
	// WARNING-level logger on os.Stderr.
	Diagnostics *zap.SugaredLogger
}

// Results is the whole-run aggregate.
type Results struct {
	RunID       string
	Sets        int
	Tests       int
	Passed      int
	Failed      int
	Skipped     int
	Allocs      uint64
	Frees       uint64
	FailedCases []string
}

// OK reports whether no case anywhere failed.
func (r Results) OK() bool { return r.Failed == 0 }

// ExitCode maps results onto the process exit status.
func (r Results) ExitCode() int {
	if r.Failed > 0 {
		return 1
	}
	return 0
}

// runContext is the explicit run state threaded through the state
// handlers; nothing about the current set or case lives in globals, so
// independent runs do not collide.
type runContext struct {
	reg   *Registry
	hooks *Hooks
	opts  Options
	diag  *zap.SugaredLogger
	runID string

	setIter *TestSet
	set     *TestSet
	tcIter  *TestCase
	tc      *TestCase
	t       *T
	logger  logging.Logger

	seq        int
	setTotal   int
	setPassed  int
	setFailed  int
	setSkipped int
	baseAllocs uint64
	baseFrees  uint64

	tracker *memtrack.Tracker
	results Results
}

// Run executes every set in the registry and returns the process exit
// status: 0 when no case failed, nonzero otherwise.
func Run(reg *Registry, hooks *Hooks) int {
	return RunWithOptions(reg, hooks, Options{}).ExitCode()
}

// RunWithOptions executes the run and returns the aggregate results.
// The hook bundle resolution order is: the hooks argument, then the
// first set-bound bundle, then the newest registered bundle, then the
// built-in console defaults.
func RunWithOptions(reg *Registry, hooks *Hooks, opts Options) Results {
	r := &runContext{reg: reg, opts: opts}
	if r.opts.Summary == nil {
		r.opts.Summary = os.Stdout
	}
	r.diag = opts.Diagnostics
	if r.diag == nil {
		r.diag = logging.NewDiagnostic(os.Stderr, logging.LevelWarning)
	}

	state := stateInit
	for state != stateDone {
		switch state {
		case stateInit:
			state = r.init(hooks)
		case stateSetLoop:
			state = r.setLoop()
		case stateSetInit:
			state = r.setInit()
		case stateBeforeSet:
			state = r.beforeSet()
		case stateCaseLoop:
			state = r.caseLoop()
		case stateCaseInit:
			state = r.caseInit()
		case stateBeforeTest:
			state = r.beforeTest()
		case stateSetupTest:
			state = r.setupTest()
		case stateStartTest:
			state = r.startTest()
		case stateExecuteTest:
			state = r.executeTest()
		case stateFuzzInit:
			state = r.fuzzInit()
		case stateEndTest:
			state = r.endTest()
		case stateTeardownTest:
			state = r.teardownTest()
		case stateAfterTest:
			state = r.afterTest()
		case stateAfterSet:
			state = r.afterSet()
		case stateSummary:
			state = r.summary()
		default:
			r.diag.Errorf("unknown runner state %d", state)
			state = stateDone
		}
	}
	return r.results
}

// bind keeps the hook context's active set/case/logger current, per the
// runner's one contract with hook implementations.
func (r *runContext) bind() {
	b, ok := r.hooks.Context.(ContextBinder)
	if !ok {
		return
	}
	logger := r.logger
	if logger == nil {
		logger = logging.NullLogger()
	}
	b.Bind(r.set, r.tc, logger)
}

// debugLog routes one debug line through the active bundle.
func (r *runContext) debugLog(line string) {
	r.bind()
	r.hooks.OnDebugLog(line, r.hooks.Context)
}

// hookMemoryListener forwards tracker events to the active bundle.
type hookMemoryListener struct{ r *runContext }

func (l hookMemoryListener) MemoryAllocated(size int, ptr uintptr) {
	l.r.bind()
	l.r.hooks.OnMemoryAlloc(size, ptr, l.r.hooks.Context)
}

func (l hookMemoryListener) MemoryFreed(ptr uintptr) {
	l.r.bind()
	l.r.hooks.OnMemoryFree(ptr, l.r.hooks.Context)
}

func (r *runContext) init(explicit *Hooks) runnerState {
	r.runID = uuid.NewString()
	r.results.RunID = r.runID
	for set := r.reg.sets; set != nil; set = set.next {
		r.results.Sets++
	}
	// Resolved once and cached for the whole run.
	r.hooks = r.reg.hooks.resolve(explicit, r.reg.sets)
	r.hooks.fillDefaults()
	r.tracker = memtrack.Active()
	r.tracker.SetListener(hookMemoryListener{r: r})
	r.setIter = r.reg.sets
	return stateSetLoop
}

func (r *runContext) setLoop() runnerState {
	if r.setIter == nil {
		return stateSummary
	}
	r.seq++
	r.set = r.setIter
	return stateSetInit
}

func (r *runContext) setInit() runnerState {
	r.setTotal, r.setPassed, r.setFailed, r.setSkipped = 0, 0, 0, 0
	r.set.seq = r.seq
	r.logger = logging.NewWriterLogger(r.set.Output())
	r.baseAllocs, r.baseFrees = r.tracker.Counts()
	return stateBeforeSet
}

func (r *runContext) beforeSet() runnerState {
	r.bind()
	r.hooks.BeforeSet(r.set, r.hooks.Context)
	r.tcIter = r.set.cases
	return stateCaseLoop
}

func (r *runContext) caseLoop() runnerState {
	if r.tcIter == nil {
		return stateAfterSet
	}
	return stateCaseInit
}

func (r *runContext) caseInit() runnerState {
	r.tc = r.tcIter
	r.set.current = r.tc
	r.tc.Result = Result{State: Pass}
	r.t = &T{set: r.set, tc: r.tc, run: r}
	if r.opts.Filter != nil && !r.opts.Filter(r.set.Name, r.tc.Name) {
		r.tc.Result = Result{State: Skip, Message: "excluded by filter parameters"}
	}
	return stateBeforeTest
}

func (r *runContext) beforeTest() runnerState {
	r.bind()
	r.hooks.BeforeTest(r.hooks.Context)
	return stateSetupTest
}

func (r *runContext) setupTest() runnerState {
	if r.set.setup != nil {
		r.set.setup()
	}
	return stateStartTest
}

func (r *runContext) startTest() runnerState {
	r.bind()
	r.hooks.OnStartTest(r.hooks.Context)
	return stateExecuteTest
}

func (r *runContext) executeTest() runnerState {
	if r.tc.IsFuzz() {
		return stateFuzzInit
	}
	// A case already marked SKIP (filtered out) never runs its body.
	if r.tc.Result.State == Pass && r.tc.fn != nil {
		if panicked := r.t.execute(func() { r.tc.fn(r.t) }); panicked {
			r.bind()
			r.hooks.OnError(r.tc.Result.Message, r.hooks.Context)
		}
	}
	return stateEndTest
}

// fuzzInit replays the dataset for the case's input type. Each
// iteration runs inside its own abort boundary, so one failing input is
// recorded and iteration continues; the case outcome aggregates them.
func (r *runContext) fuzzInit() runnerState {
	if r.tc.Result.State != Pass || r.tc.fuzzFn == nil {
		return stateEndTest
	}
	values := fuzzing.Values(r.tc.fuzzType)
	executed, failed := 0, 0
	firstFailure := ""
	for _, v := range values {
		v := v
		r.tc.Result = Result{State: Pass}
		panicked := r.t.execute(func() { r.tc.fuzzFn(r.t, v) })
		executed++
		if r.tc.Result.State == Fail {
			failed++
			if firstFailure == "" {
				firstFailure = r.tc.Result.Message
			}
			if panicked {
				r.bind()
				r.hooks.OnError(r.tc.Result.Message, r.hooks.Context)
			}
		}
	}
	// Passed count is iterations executed minus iterations failed.
	passed := executed - failed
	message := fmt.Sprintf("%d of %d fuzz iterations passed", passed, executed)
	if failed > 0 {
		if firstFailure != "" {
			message += "\n    - first failure: " + firstFailure
		}
		r.tc.Result = Result{State: Fail, Message: message}
	} else {
		r.tc.Result = Result{State: Pass, Message: message}
	}
	return stateEndTest
}

func (r *runContext) endTest() runnerState {
	r.bind()
	r.hooks.OnEndTest(r.hooks.Context)
	return stateTeardownTest
}

// teardownTest processes the result before running teardown, so the
// case's pass/fail line is emitted first and teardown still runs
// regardless of outcome.
func (r *runContext) teardownTest() runnerState {
	r.processResult()
	r.tcIter = r.tcIter.next
	if r.set.teardown != nil {
		r.set.teardown()
	}
	return stateAfterTest
}

func (r *runContext) afterTest() runnerState {
	r.bind()
	r.hooks.AfterTest(r.hooks.Context)
	return stateCaseLoop
}

// processResult applies expectation inversion, notifies the bundle and
// bumps the counters. SKIP is never inverted.
func (r *runContext) processResult() {
	tc := r.tc
	if tc.expectFail {
		switch tc.Result.State {
		case Fail:
			tc.Result = Result{State: Pass, Message: "Expected failure occurred"}
		case Pass:
			tc.Result = Result{State: Fail, Message: "Expected failure but passed"}
		}
	} else if tc.expectThrow {
		switch tc.Result.State {
		case Fail:
			tc.Result = Result{State: Pass, Message: "Expected throw occurred"}
		case Pass:
			tc.Result = Result{State: Fail, Message: "Expected throw but passed"}
		}
	}
	if tc.Result.State == Fail && tc.Result.Message == "" {
		tc.Result.Message = "Unknown"
	}

	r.bind()
	r.hooks.OnTestResult(r.set, tc, r.hooks.Context)

	switch tc.Result.State {
	case Pass:
		r.setPassed++
		r.set.Passed++
	case Skip:
		r.setSkipped++
		r.set.Skipped++
	default:
		r.setFailed++
		r.set.Failed++
		r.results.FailedCases = append(r.results.FailedCases, r.set.Name+"/"+tc.Name)
	}
	r.setTotal++
	r.results.Tests++
}

func (r *runContext) afterSet() runnerState {
	r.tc = nil
	r.set.current = nil
	r.bind()
	r.hooks.AfterSet(r.set, r.hooks.Context)

	allocs, frees := r.tracker.Counts()
	summary := SetSummary{
		RunID:    r.runID,
		Sequence: r.seq,
		Total:    r.setTotal,
		Passed:   r.setPassed,
		Failed:   r.setFailed,
		Skipped:  r.setSkipped,
		Allocs:   allocs - r.baseAllocs,
		Frees:    frees - r.baseFrees,
	}
	r.hooks.OnSetSummary(r.set, summary, r.hooks.Context)

	r.results.Passed += r.setPassed
	r.results.Failed += r.setFailed
	r.results.Skipped += r.setSkipped

	if r.set.cleanup != nil {
		r.set.cleanup()
	}
	r.setIter = r.setIter.next
	return stateSetLoop
}

func (r *runContext) summary() runnerState {
	r.tracker.SetListener(nil)
	r.results.Allocs, r.results.Frees = r.tracker.Counts()

	w := r.opts.Summary
	header := fmt.Sprintf("[%s]   Run %s", time.Now().Format("2006-01-02 15:04:05"), r.runID)
	fmt.Fprintf(w, "%-*s\n", reportWidth, header)
	writeSeparator(w, reportWidth)
	fmt.Fprintf(w, "Tests run: %d, Passed: %d, Failed: %d, Skipped: %d\n",
		r.results.Tests, r.results.Passed, r.results.Failed, r.results.Skipped)
	fmt.Fprintf(w, "Total test sets registered: %d\n", r.results.Sets)
	fmt.Fprintf(w, "Total allocs:               %d\n", r.results.Allocs)
	fmt.Fprintf(w, "Total frees:                %d\n", r.results.Frees)
	if len(r.results.FailedCases) > 0 {
		fmt.Fprintf(w, "Failed cases:\n")
		for _, name := range r.results.FailedCases {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}
	return stateDone
}
