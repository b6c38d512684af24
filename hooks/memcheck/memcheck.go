// Package memcheck provides a hook bundle that keeps a live ledger of
// outstanding allocations and, when enabled, fails a test that leaks.
package memcheck

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/Quantum-Override/sigma-test/logging"
	"github.com/Quantum-Override/sigma-test/sigtest"
)

// Record describes one outstanding allocation.
type Record struct {
	Ptr   uintptr
	Size  int
	Stack string
}

// Checker tracks live allocations observed through the memory hook
// callbacks. All methods are safe for concurrent use.
type Checker struct {
	mu         sync.Mutex
	enabled    bool
	backtraces bool
	records    []Record
	current    uint64
	peak       uint64
	failLeaks  bool

	set    *sigtest.TestSet
	tc     *sigtest.TestCase
	logger logging.Logger
}

// NewChecker returns an enabled checker. failLeaks makes the bundle
// mark a case failed when allocations outlive it.
func NewChecker(failLeaks bool) *Checker {
	return &Checker{enabled: true, failLeaks: failLeaks}
}

// Bind keeps the active set, case and logger current.
func (c *Checker) Bind(set *sigtest.TestSet, tc *sigtest.TestCase, logger logging.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = set
	c.tc = tc
	c.logger = logger
}

// Enable starts recording allocations.
func (c *Checker) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
}

// Disable stops recording; the existing ledger is kept.
func (c *Checker) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
}

// EnableBacktraces captures a call stack with each allocation. Costly;
// off by default.
func (c *Checker) EnableBacktraces(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backtraces = on
}

// Reset clears the ledger and the peak watermark.
func (c *Checker) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = c.records[:0]
	c.current = 0
	c.peak = 0
}

// LeakedBlocks returns the count of outstanding allocations.
func (c *Checker) LeakedBlocks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// LeakedBytes returns the total size of outstanding allocations.
func (c *Checker) LeakedBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// PeakBytes returns the high watermark of live bytes.
func (c *Checker) PeakBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peak
}

// Leaked returns a copy of the outstanding allocation records.
func (c *Checker) Leaked() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Histogram buckets outstanding allocations by size.
func (c *Checker) Histogram() map[int]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := make(map[int]int)
	for _, rec := range c.records {
		h[rec.Size]++
	}
	return h
}

func (c *Checker) allocated(size int, ptr uintptr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	rec := Record{Ptr: ptr, Size: size}
	if c.backtraces {
		buf := make([]byte, 4096)
		rec.Stack = string(buf[:runtime.Stack(buf, false)])
	}
	c.records = append(c.records, rec)
	c.current += uint64(size)
	if c.current > c.peak {
		c.peak = c.current
	}
}

func (c *Checker) freed(ptr uintptr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	for i, rec := range c.records {
		if rec.Ptr == ptr {
			c.current -= uint64(rec.Size)
			// Swap-remove; ledger order does not matter.
			last := len(c.records) - 1
			c.records[i] = c.records[last]
			c.records = c.records[:last]
			return
		}
	}
}

// describeLeaks renders the ledger, largest blocks first.
func (c *Checker) describeLeaks() string {
	leaked := c.Leaked()
	sort.Slice(leaked, func(i, j int) bool { return leaked[i].Size > leaked[j].Size })
	msg := fmt.Sprintf("%d allocation(s) not freed, %d byte(s) outstanding",
		len(leaked), c.LeakedBytes())
	limit := len(leaked)
	if limit > 5 {
		limit = 5
	}
	for _, rec := range leaked[:limit] {
		msg += fmt.Sprintf("\n    - %d bytes at 0x%x", rec.Size, rec.Ptr)
	}
	return msg
}

// New builds a bundle around the checker. The ledger is reset before
// each case; at end of test a dirty ledger fails the case when the
// checker was built with failLeaks.
func New(c *Checker) *sigtest.Hooks {
	return &sigtest.Hooks{
		Name:    "memcheck",
		Context: c,

		BeforeTest: func(hctx any) {
			if ck, ok := hctx.(*Checker); ok {
				ck.Reset()
			}
		},

		OnMemoryAlloc: func(size int, ptr uintptr, hctx any) {
			if ck, ok := hctx.(*Checker); ok {
				ck.allocated(size, ptr)
			}
		},

		OnMemoryFree: func(ptr uintptr, hctx any) {
			if ck, ok := hctx.(*Checker); ok {
				ck.freed(ptr)
			}
		},

		OnEndTest: func(hctx any) {
			ck, ok := hctx.(*Checker)
			if !ok || !ck.failLeaks || ck.LeakedBlocks() == 0 {
				return
			}
			ck.mu.Lock()
			tc := ck.tc
			ck.mu.Unlock()
			if tc != nil && tc.Result.State == sigtest.Pass {
				tc.Result = sigtest.Result{State: sigtest.Fail, Message: ck.describeLeaks()}
			}
		},
	}
}
