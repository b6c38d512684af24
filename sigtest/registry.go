package sigtest

import "github.com/Quantum-Override/sigma-test/fuzzing"

// Registry is the graph of test sets built by registration calls before
// a run starts. Sets are kept newest-first, so the runner visits them
// in reverse registration order.
type Registry struct {
	sets    *TestSet
	current *TestSet
	hooks   HookRegistry
}

func NewRegistry() *Registry { return &Registry{} }

// Set starts a new test set; subsequent case registrations land in it.
// The config function, when given, opens the set's output sink.
func (r *Registry) Set(name string, config ConfigFunc, cleanup func()) *TestSet {
	set := &TestSet{Name: name, cleanup: cleanup}
	if config != nil {
		set.out = config()
	}
	set.next = r.sets
	r.sets = set
	r.current = set
	return set
}

func (r *Registry) ensureSet() *TestSet {
	if r.current == nil {
		r.Set("default", nil, nil)
	}
	return r.current
}

func (r *Registry) addCase(tc *TestCase) {
	r.ensureSet().append(tc)
}

// Case registers a plain test case in the current set.
func (r *Registry) Case(name string, fn TestFunc) {
	r.addCase(&TestCase{Name: name, fn: fn})
}

// FailCase registers a case expected to fail an assertion.
func (r *Registry) FailCase(name string, fn TestFunc) {
	r.addCase(&TestCase{Name: name, fn: fn, expectFail: true})
}

// ThrowCase registers a case expected to abort abnormally.
func (r *Registry) ThrowCase(name string, fn TestFunc) {
	r.addCase(&TestCase{Name: name, fn: fn, expectThrow: true})
}

// FuzzCase registers a case replayed over the dataset for typ.
func (r *Registry) FuzzCase(name string, fn FuzzFunc, typ fuzzing.Type) {
	r.addCase(&TestCase{Name: name, fuzzFn: fn, fuzzType: typ})
}

// Setup sets the per-case setup function for the current set.
func (r *Registry) Setup(fn func()) {
	if r.current != nil {
		r.current.setup = fn
	}
}

// Teardown sets the per-case teardown function for the current set.
func (r *Registry) Teardown(fn func()) {
	if r.current != nil {
		r.current.teardown = fn
	}
}

// RegisterHooks adds a bundle to the registry and binds it to the
// current set when the set has none.
func (r *Registry) RegisterHooks(h *Hooks) {
	if h == nil {
		return
	}
	r.hooks.Register(h)
	if r.current != nil && r.current.hooks == nil {
		r.current.hooks = h
	}
}

// Sets returns registered sets, newest first.
func (r *Registry) Sets() []*TestSet {
	var out []*TestSet
	for set := r.sets; set != nil; set = set.next {
		out = append(out, set)
	}
	return out
}

// Hooks returns the registry's hook table.
func (r *Registry) Hooks() *HookRegistry { return &r.hooks }

// The default registry backs the package-level registration surface, so
// test binaries can register sets and cases from init functions.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry the package-level registration
// functions write to.
func DefaultRegistry() *Registry { return defaultRegistry }

// RegisterSet starts a new set in the default registry.
func RegisterSet(name string, config ConfigFunc, cleanup func()) *TestSet {
	return defaultRegistry.Set(name, config, cleanup)
}

// RegisterCase registers a plain case in the default registry.
func RegisterCase(name string, fn TestFunc) { defaultRegistry.Case(name, fn) }

// RegisterFailCase registers a case expected to fail.
func RegisterFailCase(name string, fn TestFunc) { defaultRegistry.FailCase(name, fn) }

// RegisterThrowCase registers a case expected to abort abnormally.
func RegisterThrowCase(name string, fn TestFunc) { defaultRegistry.ThrowCase(name, fn) }

// RegisterFuzzCase registers a fuzz case in the default registry.
func RegisterFuzzCase(name string, fn FuzzFunc, typ fuzzing.Type) {
	defaultRegistry.FuzzCase(name, fn, typ)
}

// SetupCase sets the per-case setup for the default registry's current set.
func SetupCase(fn func()) { defaultRegistry.Setup(fn) }

// TeardownCase sets the per-case teardown for the default registry's
// current set.
func TeardownCase(fn func()) { defaultRegistry.Teardown(fn) }

// RegisterHooks adds a bundle to the default registry.
func RegisterHooks(h *Hooks) { defaultRegistry.RegisterHooks(h) }
