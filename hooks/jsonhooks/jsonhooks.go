// Package jsonhooks provides a report bundle that emits one JSON
// document per test set, suitable for machine consumption.
package jsonhooks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Quantum-Override/sigma-test/logging"
	"github.com/Quantum-Override/sigma-test/sigtest"
)

// CaseReport is one executed case.
type CaseReport struct {
	Name      string   `json:"name"`
	State     string   `json:"state"`
	Message   string   `json:"message,omitempty"`
	ElapsedUS float64  `json:"elapsed_us"`
	Debug     []string `json:"debug,omitempty"`
}

// SetReport is the per-set document.
type SetReport struct {
	RunID    string       `json:"run_id"`
	Set      string       `json:"set"`
	Sequence int          `json:"sequence"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Tests    []CaseReport `json:"tests"`
	Summary  SummaryLine  `json:"summary"`
}

// SummaryLine holds the set totals.
type SummaryLine struct {
	Total   int    `json:"total"`
	Passed  int    `json:"passed"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped"`
	Allocs  uint64 `json:"allocs"`
	Frees   uint64 `json:"frees"`
}

type reportContext struct {
	w      io.Writer
	set    *sigtest.TestSet
	tc     *sigtest.TestCase
	logger logging.Logger

	report SetReport
	start  time.Time
	debug  []string
}

func (c *reportContext) Bind(set *sigtest.TestSet, tc *sigtest.TestCase, logger logging.Logger) {
	c.set = set
	c.tc = tc
	c.logger = logger
}

func from(ctx any) *reportContext {
	if c, ok := ctx.(*reportContext); ok {
		return c
	}
	return &reportContext{w: os.Stdout}
}

// New builds the bundle. The encoded documents are written to w; nil
// means os.Stdout. The set's own output writer is not used, so report
// output stays separate from anything the tests print.
func New(w io.Writer) *sigtest.Hooks {
	if w == nil {
		w = os.Stdout
	}
	ctx := &reportContext{w: w}
	return &sigtest.Hooks{
		Name:    "json",
		Context: ctx,

		BeforeSet: func(set *sigtest.TestSet, hctx any) {
			c := from(hctx)
			c.report = SetReport{
				RunID:    "",
				Set:      set.Name,
				Sequence: set.Sequence(),
				Started:  time.Now(),
			}
		},

		AfterSet: func(set *sigtest.TestSet, hctx any) {
			c := from(hctx)
			c.report.Finished = time.Now()
		},

		OnStartTest: func(hctx any) {
			c := from(hctx)
			c.start = time.Now()
			c.debug = nil
		},

		OnDebugLog: func(line string, hctx any) {
			c := from(hctx)
			c.debug = append(c.debug, line)
		},

		OnTestResult: func(set *sigtest.TestSet, tc *sigtest.TestCase, hctx any) {
			c := from(hctx)
			c.report.Tests = append(c.report.Tests, CaseReport{
				Name:      tc.Name,
				State:     tc.Result.State.String(),
				Message:   tc.Result.Message,
				ElapsedUS: float64(time.Since(c.start).Nanoseconds()) / 1e3,
				Debug:     c.debug,
			})
		},

		OnSetSummary: func(set *sigtest.TestSet, s sigtest.SetSummary, hctx any) {
			c := from(hctx)
			c.report.RunID = s.RunID
			c.report.Summary = SummaryLine{
				Total:   s.Total,
				Passed:  s.Passed,
				Failed:  s.Failed,
				Skipped: s.Skipped,
				Allocs:  s.Allocs,
				Frees:   s.Frees,
			}
			enc := json.NewEncoder(c.w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(c.report); err != nil {
				fmt.Fprintf(os.Stderr, "jsonhooks: encoding report: %v\n", err)
			}
		},
	}
}
