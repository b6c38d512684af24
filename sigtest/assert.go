package sigtest

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// Canned failure text for the fixed assertion set.
const (
	msgTrueFail     = "Expected true, but was false"
	msgFalseFail    = "Expected false, but was true"
	msgNilFail      = "Expected nil, but was not nil"
	msgNotNilFail   = "Expected non-nil, but was nil"
	msgEqualFail    = "Expected %v, but was %v"
	msgNotEqualFail = "Expected values to differ, but both were %v"
	msgRangeFail    = "Value out of range"
	msgThrowFail    = "Explicit throw triggered"
	msgFailFail     = "Explicit failure triggered"
	msgSkipFail     = "Testcase skipped"

	useStringEqual = "Use StringEqual for string comparison"
)

// Machine epsilon for each float width.
const (
	epsilonFloat32 = 1.1920929e-07
	epsilonFloat64 = 2.220446049250313e-16
)

// withUserMessage appends the formatted user message on its own
// indented line, matching the report's folding style.
func withUserMessage(base, format string, args []any) string {
	if format == "" {
		return base
	}
	return base + "\n    - " + fmt.Sprintf(format, args...)
}

// IsTrue asserts that condition holds. The optional format/args
// annotate the failure message.
func (t *T) IsTrue(condition bool, format string, args ...any) {
	if !condition {
		t.setResult(Fail, withUserMessage(msgTrueFail, format, args))
		return
	}
	t.setResult(Pass, "")
}

// IsFalse asserts that condition does not hold.
func (t *T) IsFalse(condition bool, format string, args ...any) {
	if condition {
		t.setResult(Fail, withUserMessage(msgFalseFail, format, args))
		return
	}
	t.setResult(Pass, "")
}

// IsNil asserts that value is nil, including typed nil pointers,
// slices, maps, channels and functions.
func (t *T) IsNil(value any, format string, args ...any) {
	if !isNilValue(value) {
		t.setResult(Fail, withUserMessage(msgNilFail, format, args))
		return
	}
	t.setResult(Pass, "")
}

// IsNotNil asserts that value is not nil.
func (t *T) IsNotNil(value any, format string, args ...any) {
	if isNilValue(value) {
		t.setResult(Fail, withUserMessage(msgNotNilFail, format, args))
		return
	}
	t.setResult(Pass, "")
}

// AreEqual asserts that expected and actual are equal. Floats compare
// within machine epsilon for their width; strings are rejected in favor
// of StringEqual; composite values fall back to a deep comparison whose
// diff joins the failure message.
func (t *T) AreEqual(expected, actual any, format string, args ...any) {
	if _, ok := expected.(string); ok {
		t.setResult(Fail, useStringEqual)
		return
	}
	equal, diff := valuesEqual(expected, actual)
	if !equal {
		base := fmt.Sprintf(msgEqualFail, expected, actual)
		if diff != "" {
			base += "\n" + strings.TrimRight(diff, "\n")
		}
		t.setResult(Fail, withUserMessage(base, format, args))
		return
	}
	t.setResult(Pass, "")
}

// AreNotEqual asserts that expected and actual differ, using the same
// comparison rules as AreEqual.
func (t *T) AreNotEqual(expected, actual any, format string, args ...any) {
	if _, ok := expected.(string); ok {
		t.setResult(Fail, useStringEqual)
		return
	}
	equal, _ := valuesEqual(expected, actual)
	if equal {
		base := fmt.Sprintf(msgNotEqualFail, actual)
		t.setResult(Fail, withUserMessage(base, format, args))
		return
	}
	t.setResult(Pass, "")
}

// FloatWithin asserts that min-ε <= value <= max+ε, with ε the float32
// machine epsilon. NaN is always out of range.
func (t *T) FloatWithin(value, min, max float32, format string, args ...any) {
	v := float64(value)
	if math.IsNaN(v) || v < float64(min)-epsilonFloat32 || v > float64(max)+epsilonFloat32 {
		t.setResult(Fail, withUserMessage(msgRangeFail, format, args))
		return
	}
	t.setResult(Pass, "")
}

// StringEqual asserts that two strings are equal, optionally ignoring
// case.
func (t *T) StringEqual(expected, actual string, caseSensitive bool, format string, args ...any) {
	equal := expected == actual
	if !caseSensitive {
		equal = strings.EqualFold(expected, actual)
	}
	if !equal {
		base := fmt.Sprintf(msgEqualFail, expected, actual)
		t.setResult(Fail, withUserMessage(base, format, args))
		return
	}
	t.setResult(Pass, "")
}

// Throw fails the case as an explicit thrown error.
func (t *T) Throw(format string, args ...any) {
	t.setResult(Fail, withUserMessage(msgThrowFail, format, args))
}

// Fail fails the case immediately.
func (t *T) Fail(format string, args ...any) {
	t.setResult(Fail, withUserMessage(msgFailFail, format, args))
}

// Skip marks the case skipped and stops it.
func (t *T) Skip(format string, args ...any) {
	t.setResult(Skip, withUserMessage(msgSkipFail, format, args))
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// valuesEqual compares two values: epsilon comparison for same-width
// floats, == for comparable types, deep comparison otherwise. For deep
// inequality diff carries the comparison detail.
func valuesEqual(expected, actual any) (equal bool, diff string) {
	switch e := expected.(type) {
	case float32:
		a, ok := actual.(float32)
		return ok && math.Abs(float64(e)-float64(a)) <= epsilonFloat32, ""
	case float64:
		a, ok := actual.(float64)
		return ok && math.Abs(e-a) <= epsilonFloat64, ""
	}
	defer func() {
		// Values cmp cannot walk (unexported fields, uncomparable
		// types) report unequal rather than aborting the framework.
		if recover() != nil {
			equal, diff = false, ""
		}
	}()
	et, at := reflect.TypeOf(expected), reflect.TypeOf(actual)
	if et != at {
		return false, ""
	}
	if et != nil && et.Comparable() {
		return expected == actual, ""
	}
	if cmp.Equal(expected, actual) {
		return true, ""
	}
	return false, cmp.Diff(expected, actual)
}
