// Package memtrack counts every allocation and free made through the
// framework's Allocator. The Tracker decorates a platform allocator
// with atomic counters and an optional listener, so hook bundles can
// keep their own per-allocation ledgers for leak reporting.
package memtrack

import (
	"sync/atomic"
	"unsafe"
)

// Allocator is the allocation interface the tracker decorates.
type Allocator interface {
	Alloc(size int) []byte
	Free(buf []byte)
}

// Listener receives every allocation and free passing through a
// Tracker. Implementations must tolerate calls made outside any test.
type Listener interface {
	MemoryAllocated(size int, ptr uintptr)
	MemoryFreed(ptr uintptr)
}

type heapAllocator struct{}

func (heapAllocator) Alloc(size int) []byte {
	if size < 0 {
		size = 0
	}
	return make([]byte, size)
}

func (heapAllocator) Free([]byte) {}

// NewHeapAllocator returns the plain platform-backed allocator.
func NewHeapAllocator() Allocator { return heapAllocator{} }

type listenerHolder struct{ l Listener }

// Tracker decorates an Allocator with atomic alloc/free counters and
// listener fan-out. The counters are atomic because instrumentation may
// fire from cleanup paths outside the runner's call chain.
type Tracker struct {
	inner    Allocator
	allocs   atomic.Uint64
	frees    atomic.Uint64
	listener atomic.Value // listenerHolder
}

// NewTracker wraps inner; a nil inner defaults to the heap allocator.
func NewTracker(inner Allocator) *Tracker {
	if inner == nil {
		inner = heapAllocator{}
	}
	return &Tracker{inner: inner}
}

func (t *Tracker) Alloc(size int) []byte {
	buf := t.inner.Alloc(size)
	t.allocs.Add(1)
	if l := t.currentListener(); l != nil {
		l.MemoryAllocated(size, PointerOf(buf))
	}
	return buf
}

func (t *Tracker) Free(buf []byte) {
	if buf == nil {
		return
	}
	t.frees.Add(1)
	if l := t.currentListener(); l != nil {
		l.MemoryFreed(PointerOf(buf))
	}
	t.inner.Free(buf)
}

// Counts returns the running allocate and free totals.
func (t *Tracker) Counts() (allocs, frees uint64) {
	return t.allocs.Load(), t.frees.Load()
}

// ResetCounts zeroes both counters.
func (t *Tracker) ResetCounts() {
	t.allocs.Store(0)
	t.frees.Store(0)
}

// SetListener replaces the listener; nil detaches it.
func (t *Tracker) SetListener(l Listener) {
	t.listener.Store(listenerHolder{l: l})
}

func (t *Tracker) currentListener() Listener {
	v := t.listener.Load()
	if v == nil {
		return nil
	}
	return v.(listenerHolder).l
}

// PointerOf returns the identity of an allocation, 0 for empty buffers.
func PointerOf(buf []byte) uintptr {
	if cap(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[:1][0]))
}

var active atomic.Pointer[Tracker]

func init() {
	active.Store(NewTracker(nil))
}

// Install makes t the process-wide tracker.
func Install(t *Tracker) {
	if t != nil {
		active.Store(t)
	}
}

// Active returns the process-wide tracker.
func Active() *Tracker { return active.Load() }

// Alloc allocates through the process-wide tracker.
func Alloc(size int) []byte { return Active().Alloc(size) }

// Free releases through the process-wide tracker.
func Free(buf []byte) { Active().Free(buf) }
