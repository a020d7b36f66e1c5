package query

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey names an entry of a sort registry.
type SortKey string

// DefaultSort keeps the order the records already have.
const DefaultSort SortKey = "default"

// Order describes how one sort key orders records. Exactly one of Text and
// Number is set.
type Order[T any] struct {
	Text       Text[T]
	Number     Number[T]
	Descending bool
}

// ByText orders records by a text attribute using locale-aware collation.
func ByText[T any](field Text[T], descending bool) Order[T] {
	return Order[T]{Text: field, Descending: descending}
}

// ByNumber orders records by a numeric attribute.
func ByNumber[T any](field Number[T], descending bool) Order[T] {
	return Order[T]{Number: field, Descending: descending}
}

// Sorts is a registry of the sort orders a view offers.
type Sorts[T any] map[SortKey]Order[T]

// Has reports whether key is DefaultSort or registered.
func (s Sorts[T]) Has(key SortKey) bool {
	if key == "" || key == DefaultSort {
		return true
	}
	_, ok := s[key]
	return ok
}

// Keys returns the registered keys, DefaultSort first, the rest sorted.
func (s Sorts[T]) Keys() []SortKey {
	keys := make([]SortKey, 0, len(s)+1)
	for k := range s {
		if k != DefaultSort {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return append([]SortKey{DefaultSort}, keys...)
}

// Apply sorts records by the order registered under key. The empty key,
// DefaultSort and unknown keys keep the input order.
func (s Sorts[T]) Apply(records []T, key SortKey, tag language.Tag) []T {
	order, ok := s[key]
	if !ok || key == DefaultSort {
		return fresh(records)
	}
	return Sort(records, order, tag)
}

type sortEntry[T any] struct {
	rec     T
	text    string
	number  float64
	present bool
}

// Sort returns a new slice with records ordered by order. The sort is
// stable: records with equal keys keep their relative input order. Records
// without a value sort as the smallest value, first when ascending and last
// when descending. Text keys are compared with the collation rules of tag.
func Sort[T any](records []T, order Order[T], tag language.Tag) []T {
	entries := make([]sortEntry[T], len(records))
	for i, rec := range records {
		e := sortEntry[T]{rec: rec}
		switch {
		case order.Number != nil:
			e.number, e.present = readNumber(order.Number, rec)
		case order.Text != nil:
			e.text = readText(order.Text, rec)
			e.present = e.text != ""
		}
		entries[i] = e
	}

	var compareText func(a, b string) int
	if order.Number == nil && order.Text != nil {
		collator := collate.New(tag)
		compareText = collator.CompareString
	}

	slices.SortStableFunc(entries, func(a, b sortEntry[T]) int {
		var c int
		switch {
		case a.present != b.present:
			if a.present {
				c = 1
			} else {
				c = -1
			}
		case !a.present:
			c = 0
		case compareText != nil:
			c = compareText(a.text, b.text)
		default:
			c = cmp.Compare(a.number, b.number)
		}
		if order.Descending {
			return -c
		}
		return c
	})

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.rec
	}
	return out
}
