// Package query implements the array query-parameter convention used by
// the catalog API: a parameter may be repeated (highlight=a&highlight=b)
// or carry one delimited value (highlight=a,b).
package query

import (
	"iter"
	"strings"
)

// DefaultSeparator is used when no candidate separator is found.
const DefaultSeparator = ','

// separatorCandidates is ordered by priority, not by position in the input.
var separatorCandidates = []rune{',', ' ', '\\', '|'}

// DetectSeparator returns the first candidate separator present in s.
func DetectSeparator(s string) (rune, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range separatorCandidates {
		if strings.ContainsRune(s, c) {
			return c, true
		}
	}
	return 0, false
}

// MultiValueParam is an ordered collection of non-empty values.
// Duplicates are kept.
type MultiValueParam struct {
	values []string
}

// New builds a collection from values that were already supplied
// separately, without separator detection. Empty values are dropped.
func New(values ...string) MultiValueParam {
	var m MultiValueParam
	for _, v := range values {
		m.Append(v)
	}
	return m
}

// Append adds v unless it is empty.
func (m *MultiValueParam) Append(v string) {
	if v == "" {
		return
	}
	m.values = append(m.values, v)
}

// Contains reports whether v is one of the values.
func (m MultiValueParam) Contains(v string) bool {
	for _, x := range m.values {
		if x == v {
			return true
		}
	}
	return false
}

// Len returns the number of values.
func (m MultiValueParam) Len() int { return len(m.values) }

// Values returns a copy of the values in insertion order.
func (m MultiValueParam) Values() []string {
	return append([]string(nil), m.values...)
}

// All yields the values in insertion order.
func (m MultiValueParam) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, v := range m.values {
			if !yield(v) {
				return
			}
		}
	}
}

func (m MultiValueParam) String() string {
	return strings.Join(m.values, string(DefaultSeparator))
}

// Parse replaces the contents with the values delimited by sep in source.
// An empty source leaves the current contents untouched.
func (m *MultiValueParam) Parse(source string, sep rune) {
	if source == "" {
		return
	}
	m.values = nil
	if !strings.ContainsRune(source, sep) {
		m.values = append(m.values, source)
		return
	}
	for _, tok := range strings.Split(source, string(sep)) {
		m.Append(tok)
	}
}

// TryParse parses source into a new collection. It fails only when
// source is empty.
func TryParse(source string, sep rune) (MultiValueParam, bool) {
	var m MultiValueParam
	if source == "" {
		return m, false
	}
	m.Parse(source, sep)
	return m, true
}
