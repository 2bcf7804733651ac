package settings

import (
	"context"
	"sort"
	"sync"
)

// Store caches settings snapshots keyed by server URL.
type Store interface {
	Get(ctx context.Context, serverURL string) (Snapshot, bool, error)
	Save(ctx context.Context, serverURL string, snapshot Snapshot) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, serverURL string) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Snapshot
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Snapshot)}
}

func (s *MemoryStore) Get(_ context.Context, serverURL string) (Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.items[serverURL]
	return snap, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, serverURL string, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[serverURL] = NewSnapshot(snapshot.values)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.items))
	for url := range s.items {
		out = append(out, url)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, serverURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, serverURL)
	return nil
}
