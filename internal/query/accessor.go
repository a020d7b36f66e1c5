package query

// Text reads a free-text attribute of a record. An empty string is treated
// as a missing value.
type Text[T any] func(T) string

// Category reads a categorical attribute. ok is false when the record has no
// value for it.
type Category[T any] func(T) (value string, ok bool)

// Number reads a numeric attribute. ok is false when the record has no value
// for it.
type Number[T any] func(T) (value float64, ok bool)

func readText[T any](field Text[T], rec T) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	return field(rec)
}

func readCategory[T any](field Category[T], rec T) (s string, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()
	s, ok = field(rec)
	if s == "" {
		ok = false
	}
	return s, ok
}

func readNumber[T any](field Number[T], rec T) (v float64, ok bool) {
	defer func() {
		if recover() != nil {
			v, ok = 0, false
		}
	}()
	return field(rec)
}

// IntPtr adapts an optional integer field into a Number accessor.
func IntPtr[T any](get func(T) *int) Number[T] {
	return func(rec T) (float64, bool) {
		p := get(rec)
		if p == nil {
			return 0, false
		}
		return float64(*p), true
	}
}

// FloatPtr adapts an optional float field into a Number accessor.
func FloatPtr[T any](get func(T) *float64) Number[T] {
	return func(rec T) (float64, bool) {
		p := get(rec)
		if p == nil {
			return 0, false
		}
		return *p, true
	}
}

// Int adapts a required integer field into a Number accessor.
func Int[T any](get func(T) int) Number[T] {
	return func(rec T) (float64, bool) {
		return float64(get(rec)), true
	}
}

// String adapts a plain string field into a Category accessor. Empty strings
// are missing.
func String[T any](get func(T) string) Category[T] {
	return func(rec T) (string, bool) {
		s := get(rec)
		return s, s != ""
	}
}
