// Package junithooks provides a report bundle that accumulates every
// set into a JUnit XML document, for consumption by CI systems.
package junithooks

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Quantum-Override/sigma-test/logging"
	"github.com/Quantum-Override/sigma-test/sigtest"
)

type testsuites struct {
	XMLName  xml.Name    `xml:"testsuites"`
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Skipped  int         `xml:"skipped,attr"`
	Suites   []testsuite `xml:"testsuite"`
}

type testsuite struct {
	Name      string     `xml:"name,attr"`
	Tests     int        `xml:"tests,attr"`
	Failures  int        `xml:"failures,attr"`
	Skipped   int        `xml:"skipped,attr"`
	Hostname  string     `xml:"hostname,attr"`
	Timestamp string     `xml:"timestamp,attr"`
	Time      float64    `xml:"time,attr"`
	Cases     []testcase `xml:"testcase"`
}

type testcase struct {
	Name      string  `xml:"name,attr"`
	Classname string  `xml:"classname,attr"`
	Time      float64 `xml:"time,attr"`
	Failure   *detail `xml:"failure,omitempty"`
	Skip      *detail `xml:"skipped,omitempty"`
	Out       *sysout `xml:"system-out,omitempty"`
}

type detail struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

type sysout struct {
	Body string `xml:",chardata"`
}

type reportContext struct {
	w      io.Writer
	set    *sigtest.TestSet
	tc     *sigtest.TestCase
	logger logging.Logger

	doc      testsuites
	suite    testsuite
	suiteAt  time.Time
	caseAt   time.Time
	debug    []string
	hostname string
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
	return &reportContext{w: io.Discard}
}

// New builds the bundle. The XML document is rewritten to w after each
// set's summary; nil means os.Stdout. File targets end up holding the
// complete document for the run.
func New(w io.Writer) *sigtest.Hooks {
	if w == nil {
		w = os.Stdout
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	ctx := &reportContext{w: w, hostname: host}
	return &sigtest.Hooks{
		Name:    "junit",
		Context: ctx,

		BeforeSet: func(set *sigtest.TestSet, hctx any) {
			c := from(hctx)
			c.suiteAt = time.Now()
			c.suite = testsuite{
				Name:      set.Name,
				Hostname:  c.hostname,
				Timestamp: c.suiteAt.Format(time.RFC3339),
			}
		},

		OnStartTest: func(hctx any) {
			c := from(hctx)
			c.caseAt = time.Now()
			c.debug = nil
		},

		OnDebugLog: func(line string, hctx any) {
			c := from(hctx)
			c.debug = append(c.debug, line)
		},

		OnTestResult: func(set *sigtest.TestSet, tc *sigtest.TestCase, hctx any) {
			c := from(hctx)
			entry := testcase{
				Name:      tc.Name,
				Classname: set.Name,
				Time:      time.Since(c.caseAt).Seconds(),
			}
			switch tc.Result.State {
			case sigtest.Fail:
				entry.Failure = &detail{
					Message: firstLine(tc.Result.Message),
					Body:    tc.Result.Message,
				}
			case sigtest.Skip:
				entry.Skip = &detail{Message: tc.Result.Message}
			}
			if len(c.debug) > 0 {
				entry.Out = &sysout{Body: strings.Join(c.debug, "\n")}
			}
			c.suite.Cases = append(c.suite.Cases, entry)
		},

		OnSetSummary: func(set *sigtest.TestSet, s sigtest.SetSummary, hctx any) {
			c := from(hctx)
			c.suite.Tests = s.Total
			c.suite.Failures = s.Failed
			c.suite.Skipped = s.Skipped
			c.suite.Time = time.Since(c.suiteAt).Seconds()
			c.doc.Name = s.RunID
			c.doc.Tests += s.Total
			c.doc.Failures += s.Failed
			c.doc.Skipped += s.Skipped
			c.doc.Suites = append(c.doc.Suites, c.suite)
			// The set iteration order is fixed, so the document can be
			// rewritten after every set; the final write wins.
			if err := c.flush(); err != nil {
				fmt.Fprintf(os.Stderr, "junithooks: writing report: %v\n", err)
			}
		},
	}
}

func (c *reportContext) flush() error {
	out, err := xml.MarshalIndent(c.doc, "", "  ")
	if err != nil {
		return err
	}
	// When the target is a file, each rewrite replaces the previous
	// document so the file always holds exactly one valid report.
	if f, ok := c.w.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			_ = f.Truncate(0)
		}
	}
	if _, err := io.WriteString(c.w, xml.Header); err != nil {
		return err
	}
	if _, err := c.w.Write(append(out, '\n')); err != nil {
		return err
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
