// Package filter derives the visible rows of a list screen from its search box
// and status selector.
package filter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// StatusAll disables status filtering.
const StatusAll = "all"

// Query is the committed input of a list screen.
type Query struct {
	Text   string
	Status string
}

// AllStatuses reports whether the query matches every status.
func (q Query) AllStatuses() bool {
	return q.Status == "" || q.Status == StatusAll
}

// Predicate decides whether a record is visible for a query.
type Predicate[T any] struct {
	fields func(T) []string
	status func(T) string
}

// New builds a predicate that matches the search text against the fields
// returned by fields and the status selector against status. A nil status
// function means the records have no status and only "all" matches.
func New[T any](fields func(T) []string, status func(T) string) Predicate[T] {
	return Predicate[T]{fields: fields, status: status}
}

// Match reports whether rec is visible: the text is a case-insensitive
// substring of at least one designated field, and the status matches exactly
// unless the selector is "all".
func (p Predicate[T]) Match(rec T, q Query) bool {
	return p.matchFolded(rec, fold(q.Text), q)
}

// Apply returns the visible records in their original order.
func (p Predicate[T]) Apply(records []T, q Query) []T {
	needle := fold(q.Text)
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if p.matchFolded(rec, needle, q) {
			out = append(out, rec)
		}
	}
	return out
}

func (p Predicate[T]) matchFolded(rec T, needle string, q Query) bool {
	if !q.AllStatuses() {
		if p.status == nil || p.status(rec) != q.Status {
			return false
		}
	}
	if needle == "" {
		return true
	}
	if p.fields == nil {
		return false
	}
	for _, field := range p.fields(rec) {
		if strings.Contains(fold(field), needle) {
			return true
		}
	}
	return false
}

// Contains reports whether text occurs in field ignoring case. Both sides are
// brought to NFC first so that precomposed and combining Vietnamese diacritics
// compare equal.
func Contains(field, text string) bool {
	return strings.Contains(fold(field), fold(text))
}

func fold(s string) string {
	// A Caser keeps state between calls, so each call gets a fresh one.
	return cases.Fold().String(norm.NFC.String(s))
}
