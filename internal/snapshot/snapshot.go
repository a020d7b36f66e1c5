// Package snapshot keeps the latest fetched copy of a record list and
// guards it against out-of-order fetch completions.
//
// Every fetch starts by taking a Token from Begin. Only the most recently
// issued token may Commit or Fail; a completion carrying an older token is
// discarded and reported as stale, so a slow response can never overwrite
// the result of a newer request.
package snapshot

import (
	"context"
	"sync"
	"time"
)

// Token identifies one fetch generation.
type Token uint64

// View is a consistent read of a Store.
type View[T any] struct {
	Records   []T
	FetchedAt time.Time
	// Err is the failure of the last completed fetch, nil on success.
	Err   error
	Token Token
	// Loaded is false until a fetch has completed.
	Loaded bool
}

// Failed reports whether the last completed fetch failed.
func (v View[T]) Failed() bool { return v.Err != nil }

// Store holds the latest committed records for one resource.
type Store[T any] struct {
	mu      sync.RWMutex
	issued  Token
	view    View[T]
	pending bool
	// loaded is closed by the first completed fetch.
	loaded chan struct{}
	now    func() time.Time
}

// New returns an empty Store.
func New[T any]() *Store[T] {
	return &Store[T]{loaded: make(chan struct{}), now: time.Now}
}

// Begin issues a new token, superseding any outstanding one.
func (s *Store[T]) Begin() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.pending = true
	return s.issued
}

// Commit replaces the records if tok is the latest issued token. The store
// keeps its own copy of records. It returns false for a stale token.
func (s *Store[T]) Commit(tok Token, records []T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.issued {
		return false
	}
	s.view = View[T]{
		Records:   append(make([]T, 0, len(records)), records...),
		FetchedAt: s.now(),
		Token:     tok,
		Loaded:    true,
	}
	s.pending = false
	s.markLoaded()
	return true
}

// Fail records err for tok. The failed fetch leaves an empty record list so
// callers render a "failed to load" state rather than outdated data.
// It returns false for a stale token.
func (s *Store[T]) Fail(tok Token, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.issued {
		return false
	}
	s.view = View[T]{
		Records:   []T{},
		FetchedAt: s.now(),
		Err:       err,
		Token:     tok,
		Loaded:    true,
	}
	s.pending = false
	s.markLoaded()
	return true
}

func (s *Store[T]) markLoaded() {
	select {
	case <-s.loaded:
	default:
		close(s.loaded)
	}
}

// Wait blocks until some fetch has completed and returns the current view.
// A fetch discarded as stale does not count; Wait keeps waiting for the
// newer one. It returns ctx.Err() if ctx ends first.
func (s *Store[T]) Wait(ctx context.Context) (View[T], error) {
	select {
	case <-s.loaded:
		return s.Load(), nil
	case <-ctx.Done():
		return s.Load(), ctx.Err()
	}
}

// Load returns the current view. The returned Records slice is shared and
// must not be modified.
func (s *Store[T]) Load() View[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.view
	if v.Records == nil {
		v.Records = []T{}
	}
	return v
}

// Pending reports whether a fetch has been issued and not yet completed.
func (s *Store[T]) Pending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}
