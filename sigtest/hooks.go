package sigtest

import (
	"errors"

	"github.com/Quantum-Override/sigma-test/logging"
)

// Hooks is a named bundle of optional lifecycle callbacks: the
// framework's only extension point. Unset callbacks are back-filled
// with built-in defaults once, at run init, so the runner never
// nil-checks a callback.
type Hooks struct {
	Name string

	BeforeSet     func(set *TestSet, ctx any)
	AfterSet      func(set *TestSet, ctx any)
	BeforeTest    func(ctx any)
	AfterTest     func(ctx any)
	OnStartTest   func(ctx any)
	OnEndTest     func(ctx any)
	OnError       func(message string, ctx any)
	OnTestResult  func(set *TestSet, tc *TestCase, ctx any)
	OnSetSummary  func(set *TestSet, summary SetSummary, ctx any)
	OnMemoryAlloc func(size int, ptr uintptr, ctx any)
	OnMemoryFree  func(ptr uintptr, ctx any)
	OnDebugLog    func(line string, ctx any)

	// Context is owned by the hook implementation and opaque to the
	// runner; see ContextBinder for the one contract the runner keeps.
	Context any

	filled bool
}

// SetSummary is the read-only per-set roll-up handed to OnSetSummary.
type SetSummary struct {
	RunID    string
	Sequence int
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Allocs   uint64
	Frees    uint64
}

// Leaks returns allocations minus frees, floored at zero.
func (s SetSummary) Leaks() uint64 {
	if s.Allocs > s.Frees {
		return s.Allocs - s.Frees
	}
	return 0
}

// ContextBinder is implemented by hook contexts that want the active
// set, case and sink logger kept current before each callback.
type ContextBinder interface {
	Bind(set *TestSet, tc *TestCase, logger logging.Logger)
}

// HookRegistry is a name-addressable table of bundles. The most
// recently registered bundle is visible first, both for name lookups
// and as the fallback bundle for a run.
type HookRegistry struct {
	head *hookEntry
}

type hookEntry struct {
	hooks *Hooks
	next  *hookEntry
}

// Register prepends a bundle; later registrations shadow earlier ones
// of the same name.
func (r *HookRegistry) Register(h *Hooks) {
	if h == nil {
		return
	}
	r.head = &hookEntry{hooks: h, next: r.head}
}

// Lookup returns the most recently registered bundle with the name.
func (r *HookRegistry) Lookup(name string) *Hooks {
	for e := r.head; e != nil; e = e.next {
		if e.hooks.Name == name {
			return e.hooks
		}
	}
	return nil
}

// First returns the most recently registered bundle, if any.
func (r *HookRegistry) First() *Hooks {
	if r.head == nil {
		return nil
	}
	return r.head.hooks
}

// InitHooks returns the registered bundle with the given name, or a
// fresh empty bundle carrying it.
func (r *HookRegistry) InitHooks(name string) (*Hooks, error) {
	if name == "" {
		return nil, errors.New("hook name cannot be empty")
	}
	if h := r.Lookup(name); h != nil {
		return h, nil
	}
	return &Hooks{Name: name}, nil
}

// resolve picks the active bundle for a run: explicit argument, then
// the first set-bound bundle, then the newest registered bundle, then
// the built-in defaults. Called once per run; the result is cached by
// the runner.
func (r *HookRegistry) resolve(explicit *Hooks, sets *TestSet) *Hooks {
	if explicit != nil {
		return explicit
	}
	for set := sets; set != nil; set = set.next {
		if set.hooks != nil {
			return set.hooks
		}
	}
	if h := r.First(); h != nil {
		return h
	}
	return newDefaultHooks()
}

// fillDefaults back-fills unset callbacks with the built-in report
// implementations. Idempotent: a callback assigned once, by the bundle
// or by a previous fill, is never overwritten.
func (h *Hooks) fillDefaults() {
	if h.filled {
		return
	}
	d := defaultCallbacks()
	if h.BeforeSet == nil {
		h.BeforeSet = d.BeforeSet
	}
	if h.AfterSet == nil {
		h.AfterSet = d.AfterSet
	}
	if h.BeforeTest == nil {
		h.BeforeTest = d.BeforeTest
	}
	if h.AfterTest == nil {
		h.AfterTest = d.AfterTest
	}
	if h.OnStartTest == nil {
		h.OnStartTest = d.OnStartTest
	}
	if h.OnEndTest == nil {
		h.OnEndTest = d.OnEndTest
	}
	if h.OnError == nil {
		h.OnError = d.OnError
	}
	if h.OnTestResult == nil {
		h.OnTestResult = d.OnTestResult
	}
	if h.OnSetSummary == nil {
		h.OnSetSummary = d.OnSetSummary
	}
	if h.OnMemoryAlloc == nil {
		h.OnMemoryAlloc = d.OnMemoryAlloc
	}
	if h.OnMemoryFree == nil {
		h.OnMemoryFree = d.OnMemoryFree
	}
	if h.OnDebugLog == nil {
		h.OnDebugLog = d.OnDebugLog
	}
	if h.Context == nil {
		h.Context = newConsoleContext()
	}
	h.filled = true
}
