package cache

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Tag is a coarse label attached to cached read results. Mutations declare
// which tags they invalidate; matching is exact-string set intersection, with
// no hierarchical or prefix semantics.
type Tag string

// NewTag builds a tag from a resource kind and an identifier, e.g.
// ("Clients", "LIST") -> "Clients:LIST".
func NewTag(kind, id string) Tag {
	return Tag(kind + ":" + id)
}

// FetchFunc loads a result from the network and declares the tags it should be
// filed under.
type FetchFunc[T any] func(ctx context.Context) (T, []Tag, error)

type entry struct {
	value       any
	tags        map[Tag]struct{}
	stale       bool
	subscribers int
}

// Store holds tagged read results keyed by (endpoint, parameters). Entries are
// marked stale when a mutation invalidates one of their tags and refetched
// before being served again; entries with no remaining subscribers are
// evicted.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	log     zerolog.Logger
}

// NewStore creates an empty cache store
func NewStore(log zerolog.Logger) *Store {
	return &Store{
		entries: make(map[string]*entry),
		log:     log,
	}
}

// Query returns the cached value for key when present and fresh; otherwise it
// calls fetch, files the result under the tags fetch declares, and returns it.
// A stale entry is never served: fetch errors propagate to the caller.
func Query[T any](ctx context.Context, s *Store, key string, fetch FetchFunc[T]) (T, error) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && !e.stale {
		if value, ok := e.value.(T); ok {
			s.mu.Unlock()
			return value, nil
		}
	}
	s.mu.Unlock()

	value, tags, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.value = value
	e.stale = false
	e.tags = make(map[Tag]struct{}, len(tags))
	for _, tag := range tags {
		e.tags[tag] = struct{}{}
	}
	return value, nil
}

// Invalidate marks every entry whose tag set intersects tags as stale. Called
// after a successful mutation.
func (s *Store) Invalidate(tags ...Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invalidated := 0
	for key, e := range s.entries {
		if e.stale {
			continue
		}
		for _, tag := range tags {
			if _, ok := e.tags[tag]; ok {
				e.stale = true
				invalidated++
				s.log.Debug().Str("key", key).Str("tag", string(tag)).Msg("cache entry invalidated")
				break
			}
		}
	}
	if invalidated > 0 {
		s.log.Debug().Int("entries", invalidated).Msg("cache invalidation complete")
	}
}

// Subscribe registers interest in key and returns the matching unsubscribe.
// When the last subscriber goes away the entry is evicted.
func (s *Store) Subscribe(key string) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.subscribers++

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			e.subscribers--
			if e.subscribers <= 0 {
				delete(s.entries, key)
			}
		})
	}
}

// IsStale reports whether key is cached but marked for refetch
func (s *Store) IsStale(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return ok && e.stale
}

// Has reports whether key currently has a cached value
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return ok && e.value != nil
}
