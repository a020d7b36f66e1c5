package query

import (
	"slices"

	"golang.org/x/text/language"
)

// State is the caller's current intent for one list: what to search for,
// which categorical values to accept, which numeric ranges to apply and how
// to order the outcome. The zero State selects everything in fetch order.
type State struct {
	Search     string
	Categories map[string][]string
	Ranges     map[string]Range
	Sort       SortKey
}

// IsEmpty reports whether the state restricts or reorders anything.
func (s State) IsEmpty() bool {
	if s.Search != "" {
		return false
	}
	for _, selected := range s.Categories {
		if len(selected) > 0 {
			return false
		}
	}
	for _, r := range s.Ranges {
		if !r.IsZero() {
			return false
		}
	}
	return s.Sort == "" || s.Sort == DefaultSort
}

// Config binds the pipeline to one record type: which text fields are
// searched, which categorical and numeric filters exist and which sort orders
// are offered.
type Config[T any] struct {
	Search     []Text[T]
	Categories map[string]Category[T]
	Ranges     map[string]Number[T]
	Sorts      Sorts[T]
	// Locale drives text collation; language.Und when unset.
	Locale language.Tag
}

// Run derives the displayed list from records and state: search, then every
// categorical filter, then every range filter, then sort. Filters named in
// state but unknown to the config are ignored.
func (c Config[T]) Run(records []T, state State) []T {
	out := TextSearch(records, state.Search, c.Search)

	for _, name := range sortedKeys(state.Categories) {
		field, ok := c.Categories[name]
		if !ok {
			continue
		}
		out = CategoricalFilter(out, state.Categories[name], field)
	}

	for _, name := range sortedKeys(state.Ranges) {
		field, ok := c.Ranges[name]
		if !ok {
			continue
		}
		r := state.Ranges[name]
		out = RangeFilter(out, r.Min, r.Max, field)
	}

	return c.Sorts.Apply(out, state.Sort, c.Locale)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
