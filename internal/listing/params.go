// Path: internal/listing/params.go
package listing

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"pastry-portal/internal/domain"
	"pastry-portal/internal/query"
)

// ErrInvalidQuery is wrapped by every error ParseState returns.
var ErrInvalidQuery = errors.New("invalid list query")

// Schema lists the filter and sort names a resource accepts.
type Schema struct {
	Categories []string        `json:"categories"`
	Ranges     []string        `json:"ranges"`
	Sorts      []query.SortKey `json:"sorts"`
}

// SchemaOf extracts the accepted names from a pipeline configuration.
func SchemaOf[T any](cfg query.Config[T]) Schema {
	s := Schema{Sorts: cfg.Sorts.Keys()}
	for name := range cfg.Categories {
		s.Categories = append(s.Categories, name)
	}
	for name := range cfg.Ranges {
		s.Ranges = append(s.Ranges, name)
	}
	slices.Sort(s.Categories)
	slices.Sort(s.Ranges)
	return s
}

var schemas = map[domain.Resource]Schema{
	domain.ResourceCourses: SchemaOf(Courses(language.Und)),
	domain.ResourcePosts:   SchemaOf(Posts(language.Und)),
	domain.ResourceReviews: SchemaOf(Reviews(language.Und)),
}

// SchemaFor returns the schema of a resource.
func SchemaFor(r domain.Resource) (Schema, bool) {
	s, ok := schemas[r]
	return s, ok
}

// form is the textual part of a list query, checked with struct tags.
type form struct {
	Search string   `validate:"max=200"`
	Sort   string   `validate:"omitempty,max=32,alphanum"`
	Values []string `validate:"dive,max=200"`
}

// bounds holds a parsed range; a nil end is unset.
type bounds struct {
	Min *float64 `validate:"omitempty,gte=0"`
	Max *float64 `validate:"omitempty,gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// RangeParam returns the URL parameter names of a range filter, e.g.
// "minTime" and "maxTime" for "time".
func RangeParam(name string) (lower, upper string) {
	if name == "" {
		return "min", "max"
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return "min" + string(r), "max" + string(r)
}

// ParseState reads a list query for resource from URL parameters:
// "q" for search text, one repeated parameter per categorical filter,
// min<Name>/max<Name> per range filter and "sort". Unknown parameters are
// ignored; unknown sort keys and malformed numbers are rejected.
func ParseState(resource domain.Resource, values url.Values) (query.State, error) {
	schema, ok := schemas[resource]
	if !ok {
		return query.State{}, fmt.Errorf("%w: unknown resource %q", ErrInvalidQuery, resource)
	}

	f := form{
		Search: strings.TrimSpace(values.Get("q")),
		Sort:   strings.TrimSpace(values.Get("sort")),
	}
	state := query.State{
		Search: f.Search,
		Sort:   query.SortKey(f.Sort),
	}

	for _, name := range schema.Categories {
		selected := nonEmpty(values[name])
		if len(selected) == 0 {
			continue
		}
		if state.Categories == nil {
			state.Categories = make(map[string][]string)
		}
		state.Categories[name] = selected
		f.Values = append(f.Values, selected...)
	}

	if err := validate.Struct(f); err != nil {
		return query.State{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if !slices.Contains(schema.Sorts, state.Sort) && state.Sort != "" {
		return query.State{}, fmt.Errorf("%w: unknown sort %q for %s", ErrInvalidQuery, state.Sort, resource)
	}

	for _, name := range schema.Ranges {
		lowerParam, upperParam := RangeParam(name)
		var b bounds
		var err error
		if b.Min, err = parseNumber(values.Get(lowerParam)); err != nil {
			return query.State{}, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, lowerParam, err)
		}
		if b.Max, err = parseNumber(values.Get(upperParam)); err != nil {
			return query.State{}, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, upperParam, err)
		}
		if b.Min == nil && b.Max == nil {
			continue
		}
		if err := validate.Struct(b); err != nil {
			return query.State{}, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, name, err)
		}
		if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
			return query.State{}, fmt.Errorf("%w: %s: min %v exceeds max %v", ErrInvalidQuery, name, *b.Min, *b.Max)
		}

		var r query.Range
		if b.Min != nil {
			r.Min = query.At(*b.Min)
		}
		if b.Max != nil {
			r.Max = query.At(*b.Max)
		}
		if state.Ranges == nil {
			state.Ranges = make(map[string]query.Range)
		}
		state.Ranges[name] = r
	}

	return state, nil
}

// EncodeState renders state as URL parameters that ParseState reads back.
func EncodeState(state query.State) url.Values {
	values := url.Values{}
	if state.Search != "" {
		values.Set("q", state.Search)
	}
	if state.Sort != "" && state.Sort != query.DefaultSort {
		values.Set("sort", string(state.Sort))
	}
	for name, selected := range state.Categories {
		for _, v := range selected {
			values.Add(name, v)
		}
	}
	for name, r := range state.Ranges {
		lowerParam, upperParam := RangeParam(name)
		if r.Min.IsSet() {
			values.Set(lowerParam, r.Min.String())
		}
		if r.Max.IsSet() {
			values.Set(upperParam, r.Max.String())
		}
	}
	return values
}

func parseNumber(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", raw)
	}
	return &v, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
