// Package cache provides TTL-bounded, single-flight caching for expensive
// bulk collections. Each slot holds one collection and owns its fetch
// function; concurrent callers of a stale slot share one underlying fetch.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc produces a fresh value for a slot.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Slot caches one value with a TTL. The zero value is not usable; construct
// with NewSlot. A slot moves empty → fresh → stale and back to fresh on
// refetch; a failed fetch leaves the previous state intact and surfaces the
// error to that caller only.
type Slot[T any] struct {
	name  string
	ttl   time.Duration
	fetch FetchFunc[T]

	// nowFunc allows test injection of time.
	nowFunc func() time.Time

	sf singleflight.Group

	mu        sync.Mutex
	data      T
	fetchedAt time.Time
	filled    bool
	epoch     uint64
}

// SlotOption configures a Slot.
type SlotOption[T any] func(*Slot[T])

// WithClock overrides the time source, for deterministic tests.
func WithClock[T any](now func() time.Time) SlotOption[T] {
	return func(s *Slot[T]) {
		s.nowFunc = now
	}
}

// NewSlot creates an empty slot with the given TTL and fetch function.
func NewSlot[T any](name string, ttl time.Duration, fetch FetchFunc[T], opts ...SlotOption[T]) *Slot[T] {
	s := &Slot[T]{
		name:    name,
		ttl:     ttl,
		fetch:   fetch,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached value when it is younger than the TTL, otherwise
// performs one fetch shared among all concurrent callers. A fetch failure is
// not cached: the slot keeps its pre-fetch contents and the next Get retries.
func (s *Slot[T]) Get(ctx context.Context) (T, error) {
	s.mu.Lock()
	if s.filled && s.nowFunc().Sub(s.fetchedAt) < s.ttl {
		data := s.data
		s.mu.Unlock()
		return data, nil
	}
	s.mu.Unlock()

	v, err, _ := s.sf.Do(s.name, func() (any, error) {
		// Re-check under the flight: a caller queued behind a completed
		// fetch must not trigger another one.
		s.mu.Lock()
		if s.filled && s.nowFunc().Sub(s.fetchedAt) < s.ttl {
			data := s.data
			s.mu.Unlock()
			return data, nil
		}
		epoch := s.epoch
		s.mu.Unlock()

		data, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		// An Invalidate during this fetch means the result may predate a
		// mutation; serve it to the waiting callers but do not cache it.
		if s.epoch == epoch {
			s.data = data
			s.fetchedAt = s.nowFunc()
			s.filled = true
		}
		s.mu.Unlock()
		return data, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate marks the slot stale so the next Get refetches. The cached value
// stays readable to in-progress consumers until the refetch completes.
func (s *Slot[T]) Invalidate() {
	s.mu.Lock()
	s.fetchedAt = time.Time{}
	s.epoch++
	s.mu.Unlock()
	// A flight started before the invalidation would satisfy the next Get
	// with pre-mutation data; detach from it. The epoch bump keeps that old
	// flight from caching its result when it eventually completes.
	s.sf.Forget(s.name)
}

// Refresh forces a refetch regardless of age, used after a create/update
// mutation lands so the change becomes visible immediately.
func (s *Slot[T]) Refresh(ctx context.Context) (T, error) {
	s.Invalidate()
	return s.Get(ctx)
}

// Fresh reports whether the slot holds a value younger than the TTL.
func (s *Slot[T]) Fresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filled && s.nowFunc().Sub(s.fetchedAt) < s.ttl
}
