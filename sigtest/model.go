package sigtest

import (
	"io"
	"os"

	"github.com/Quantum-Override/sigma-test/fuzzing"
)

// TestState is the recorded outcome of a test case.
type TestState int

const (
	Pass TestState = iota
	Fail
	Skip
)

var testStateNames = [...]string{"PASS", "FAIL", "SKIP"}

func (s TestState) String() string {
	if s < Pass || s > Skip {
		return "UNKNOWN"
	}
	return testStateNames[s]
}

// Result is the mutable outcome slot on a test case. Only the
// assertion library and the runner's post-processing step write it.
type Result struct {
	State   TestState
	Message string
}

// TestFunc is a plain test body.
type TestFunc func(*T)

// FuzzFunc is a fuzz test body; value is one entry of the dataset for
// the case's declared input type.
type FuzzFunc func(t *T, value any)

// ConfigFunc opens the output sink for a test set. Returning nil keeps
// the default sink.
type ConfigFunc func() io.Writer

// TestCase is one registered unit of behavior under test.
type TestCase struct {
	Name string

	fn       TestFunc
	fuzzFn   FuzzFunc
	fuzzType fuzzing.Type

	expectFail  bool
	expectThrow bool

	Result Result

	next *TestCase
}

// IsFuzz reports whether the case replays a fuzz dataset.
func (tc *TestCase) IsFuzz() bool { return tc.fuzzFn != nil }

// FuzzType returns the declared input type of a fuzz case.
func (tc *TestCase) FuzzType() fuzzing.Type { return tc.fuzzType }

// ExpectFail reports whether a FAIL outcome is the expected one.
func (tc *TestCase) ExpectFail() bool { return tc.expectFail }

// ExpectThrow reports whether an abnormal abort is the expected outcome.
func (tc *TestCase) ExpectThrow() bool { return tc.expectThrow }

// TestSet is a named group of test cases sharing setup, teardown and an
// output sink. Counters accumulate while the runner executes the set.
type TestSet struct {
	Name string

	cleanup  func()
	setup    func()
	teardown func()
	out      io.Writer

	cases *TestCase
	tail  *TestCase

	Count   int
	Passed  int
	Failed  int
	Skipped int

	current *TestCase
	next    *TestSet
	hooks   *Hooks
	seq     int
}

// SetOutput redirects the set's report output to w.
func (s *TestSet) SetOutput(w io.Writer) { s.out = w }

// Output returns the set's sink, defaulting to os.Stdout.
func (s *TestSet) Output() io.Writer {
	if s.out == nil {
		return os.Stdout
	}
	return s.out
}

// Current returns the case currently executing, if any.
func (s *TestSet) Current() *TestCase { return s.current }

// Sequence returns the 1-based position the runner assigned to the set
// during the current run, 0 before any run.
func (s *TestSet) Sequence() int { return s.seq }

// Cases returns the case sequence in registration order.
func (s *TestSet) Cases() []*TestCase {
	out := make([]*TestCase, 0, s.Count)
	for tc := s.cases; tc != nil; tc = tc.next {
		out = append(out, tc)
	}
	return out
}

// BoundHooks returns the bundle bound to the set, if any.
func (s *TestSet) BoundHooks() *Hooks { return s.hooks }

func (s *TestSet) append(tc *TestCase) {
	if s.cases == nil {
		s.cases = tc
	} else {
		s.tail.next = tc
	}
	s.tail = tc
	s.Count++
}
