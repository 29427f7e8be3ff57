package storage

import (
	"sync"

	"github.com/rs/zerolog"
)

// InMemoryStore is an in-memory implementation of Store. Used for tests and for
// sessions that should not outlive the process.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
	log   zerolog.Logger
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore(log zerolog.Logger) *InMemoryStore {
	return &InMemoryStore{
		items: make(map[string]string),
		log:   log,
	}
}

func (s *InMemoryStore) SetItem(key string, value any) {
	encoded, err := encode(value)
	if err != nil {
		s.log.Err(err).Str("key", key).Msg("failed to encode storage item")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = encoded
}

func (s *InMemoryStore) GetItem(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.items[key]
	if !ok {
		return nil
	}
	return decode(raw)
}

func (s *InMemoryStore) RemoveItem(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]string)
}
