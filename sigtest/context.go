package sigtest

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/Quantum-Override/sigma-test/logging"
)

// T is the run context handed to every test body. Assertions record
// their outcome through it; the first non-PASS result aborts the body
// and returns control to the runner.
type T struct {
	set   *TestSet
	tc    *TestCase
	run   *runContext
	debug logging.CapturingLogger
}

// abortToken is what setResult panics with; execute recovers it exactly
// one frame up, so an abort never propagates past the running body.
type abortToken struct{ t *T }

// Name returns the current case name.
func (t *T) Name() string { return t.tc.Name }

// Output returns the active set's sink.
func (t *T) Output() io.Writer { return t.set.Output() }

// DebugOutput returns the debug lines captured so far for this case.
func (t *T) DebugOutput() logging.CapturedOutput { return t.debug.Output() }

// Debugf logs a line through the active hook bundle and captures it for
// the case.
func (t *T) Debugf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	t.debug.Printf("%s", line)
	if t.run != nil {
		t.run.debugLog(line)
	}
}

// setResult is the single primitive every assertion funnels through. A
// PASS lets the body continue; anything else aborts it.
func (t *T) setResult(state TestState, message string) {
	t.tc.Result = Result{State: state, Message: message}
	if state != Pass {
		panic(abortToken{t: t})
	}
}

// execute runs fn inside the abort boundary. A result abort from this T
// ends the body early; any other panic is recorded as a failure
// carrying the panic value and stack. It reports whether fn panicked
// with something other than an abort.
func (t *T) execute(fn func()) (panicked bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if tok, ok := r.(abortToken); ok && tok.t == t {
			return
		}
		panicked = true
		t.tc.Result = Result{
			State:   Fail,
			Message: fmt.Sprintf("unexpected panic: %+v\n%s", r, debug.Stack()),
		}
	}()
	fn()
	return false
}
