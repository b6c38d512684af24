package jsonhooks

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Quantum-Override/sigma-test/sigtest"
)

func TestReportCarriesCasesAndSummary(t *testing.T) {
	r := sigtest.NewRegistry()
	r.Set("suite", nil, nil)
	r.Case("passes", func(st *sigtest.T) {
		st.Debugf("some detail")
	})
	r.Case("fails", func(st *sigtest.T) { st.IsTrue(false, "") })

	var buf bytes.Buffer
	results := sigtest.RunWithOptions(r, New(&buf), sigtest.Options{Summary: io.Discard})

	var report SetReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))

	assert.Equal(t, results.RunID, report.RunID)
	assert.Equal(t, "suite", report.Set)
	assert.Equal(t, 1, report.Sequence)
	require.Len(t, report.Tests, 2)

	assert.Equal(t, "passes", report.Tests[0].Name)
	assert.Equal(t, "PASS", report.Tests[0].State)
	assert.Equal(t, []string{"some detail"}, report.Tests[0].Debug)

	assert.Equal(t, "fails", report.Tests[1].Name)
	assert.Equal(t, "FAIL", report.Tests[1].State)
	assert.Equal(t, "Expected true, but was false", report.Tests[1].Message)
	assert.Empty(t, report.Tests[1].Debug)

	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Passed)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.False(t, report.Started.IsZero())
	assert.False(t, report.Finished.IsZero())
}

func TestOneDocumentPerSet(t *testing.T) {
	r := sigtest.NewRegistry()
	r.Set("first", nil, nil)
	r.Case("a", func(st *sigtest.T) {})
	r.Set("second", nil, nil)
	r.Case("b", func(st *sigtest.T) {})

	var buf bytes.Buffer
	sigtest.RunWithOptions(r, New(&buf), sigtest.Options{Summary: io.Discard})

	dec := json.NewDecoder(&buf)
	var reports []SetReport
	for dec.More() {
		var rep SetReport
		require.NoError(t, dec.Decode(&rep))
		reports = append(reports, rep)
	}
	require.Len(t, reports, 2)
	// Sets run newest first.
	assert.Equal(t, "second", reports[0].Set)
	assert.Equal(t, "first", reports[1].Set)
}
