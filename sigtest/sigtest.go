// Package sigtest is a small unit-testing framework built around
// explicit test sets, an abrupt-unwind assertion model, pluggable hook
// bundles for reporting, dataset-driven fuzz cases and allocation
// tracking.
//
// Tests are registered into sets, typically from init functions:
//
//	func init() {
//		sigtest.RegisterSet("math", nil, nil)
//		sigtest.RegisterCase("addition", func(t *sigtest.T) {
//			t.AreEqual(4, 2+2, "")
//		})
//	}
//
// and executed with Run, which walks every set through a fixed state
// sequence and reports through the active hook bundle.
package sigtest

// Version is the framework release identifier.
const Version = "1.00.1-pre1"
