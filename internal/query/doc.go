// Package query implements the list query pipeline shared by every browsing
// view: free-text search, categorical filters, numeric range filters and a
// single sort order, applied in that order to a slice of records.
//
// Every stage is a pure function. Input slices are never modified and every
// stage returns a freshly allocated, non-nil slice, so a caller can replace
// its displayed list wholesale with the result.
//
// Records are reached only through accessor functions. An accessor reports a
// missing value through its ok result; an accessor that panics is treated the
// same way, for that record only. Missing values never match a search or an
// active filter, and sort as the smallest possible value of their key.
package query
