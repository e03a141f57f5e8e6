package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStore keeps orders in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	byKey map[string]Order
	byID  map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: make(map[string]Order), byID: make(map[string][]string)}
}

func (s *MemoryStore) Save(_ context.Context, o Order) error {
	if o.ID == "" {
		return errors.New("orders: order id required")
	}
	if o.Key == "" {
		return errors.New("orders: order key required")
	}
	o.Lines = append([]Line(nil), o.Lines...)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[o.Key]; ok {
		return ErrDuplicate
	}
	s.byKey[o.Key] = o
	s.byID[o.ID] = append(s.byID[o.ID], o.Key)
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id string) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.byID[id]
	found := make([]Order, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		o := s.byKey[keys[i]]
		o.Lines = append([]Line(nil), o.Lines...)
		found = append(found, o)
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].PlacedAt.After(found[j].PlacedAt) })
	return found, nil
}

var _ Store = (*MemoryStore)(nil)
