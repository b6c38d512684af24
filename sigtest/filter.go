package sigtest

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter decides whether a case should run. The runner records a SKIP
// result, without executing the body, for any case the filter rejects.
type Filter func(setName, caseName string) bool

// RegexList is a repeatable list of regular expressions, suitable for
// use as a flag.Value.
type RegexList []*regexp.Regexp

func (r *RegexList) String() string {
	var parts []string
	for _, rx := range *r {
		parts = append(parts, rx.String())
	}
	return strings.Join(parts, ", ")
}

// Set compiles and appends one pattern. Implements flag.Value.
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid filter pattern %q: %w", value, err)
	}
	*r = append(*r, rx)
	return nil
}

// AnyMatch reports whether any pattern matches s. An empty list matches
// nothing unless emptyMatchesAll is set.
func (r RegexList) AnyMatch(s string, emptyMatchesAll bool) bool {
	if len(r) == 0 {
		return emptyMatchesAll
	}
	for _, rx := range r {
		if rx.MatchString(s) {
			return true
		}
	}
	return false
}

// RegexFilters selects cases by their full path, "set/case". A case
// runs when it matches at least one MustMatch pattern (or MustMatch is
// empty) and matches no MustNotMatch pattern.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

// AsFilter adapts the pattern pair into a runner Filter.
func (r RegexFilters) AsFilter() Filter {
	return func(setName, caseName string) bool {
		path := setName + "/" + caseName
		if !r.MustMatch.AnyMatch(path, true) {
			return false
		}
		if r.MustNotMatch.AnyMatch(path, false) {
			return false
		}
		return true
	}
}
