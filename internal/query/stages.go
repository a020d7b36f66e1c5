package query

import (
	"strings"

	"golang.org/x/text/cases"
)

// fresh returns a non-nil copy of records.
func fresh[T any](records []T) []T {
	out := make([]T, len(records))
	copy(out, records)
	return out
}

// TextSearch keeps the records for which at least one of fields contains
// term, ignoring case. An empty term keeps everything. Relative order is
// preserved.
func TextSearch[T any](records []T, term string, fields []Text[T]) []T {
	if term == "" {
		return fresh(records)
	}
	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]T, 0, len(records))
	for _, rec := range records {
		for _, field := range fields {
			value := readText(field, rec)
			if value == "" {
				continue
			}
			if strings.Contains(fold.String(value), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// CategoricalFilter keeps the records whose value for field is one of
// selected. An empty selection keeps everything; once a selection is made, a
// record without a value is dropped.
func CategoricalFilter[T any](records []T, selected []string, field Category[T]) []T {
	if len(selected) == 0 {
		return fresh(records)
	}
	accept := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		accept[s] = struct{}{}
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		value, ok := readCategory(field, rec)
		if !ok {
			continue
		}
		if _, hit := accept[value]; hit {
			out = append(out, rec)
		}
	}
	return out
}

// RangeFilter keeps the records whose value for field lies within the
// inclusive [lower, upper] interval. Unset ends do not restrict. With both ends
// unset everything is kept, including records without a value.
func RangeFilter[T any](records []T, lower, upper Bound, field Number[T]) []T {
	r := Range{Min: lower, Max: upper}
	if r.IsZero() {
		return fresh(records)
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		value, ok := readNumber(field, rec)
		if !ok {
			continue
		}
		if r.Contains(value) {
			out = append(out, rec)
		}
	}
	return out
}
