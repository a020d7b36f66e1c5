package query

import "strconv"

// Bound is one optional end of a numeric range. The zero value is unset,
// which is distinct from a bound at 0.
type Bound struct {
	value float64
	set   bool
}

// Unset returns a bound that does not restrict anything.
func Unset() Bound {
	return Bound{}
}

// At returns a bound at v.
func At(v float64) Bound {
	return Bound{value: v, set: true}
}

// Value returns the bound and whether it is set.
func (b Bound) Value() (float64, bool) {
	return b.value, b.set
}

// IsSet reports whether the bound restricts anything.
func (b Bound) IsSet() bool {
	return b.set
}

// String renders the bound for URLs and logs; an unset bound renders empty.
func (b Bound) String() string {
	if !b.set {
		return ""
	}
	return strconv.FormatFloat(b.value, 'f', -1, 64)
}

// Range is an inclusive numeric interval with optional ends.
type Range struct {
	Min Bound
	Max Bound
}

// IsZero reports whether neither end is set.
func (r Range) IsZero() bool {
	return !r.Min.set && !r.Max.set
}

// Contains reports whether v lies within every set end of the range.
func (r Range) Contains(v float64) bool {
	if r.Min.set && v < r.Min.value {
		return false
	}
	if r.Max.set && v > r.Max.value {
		return false
	}
	return true
}
