package session

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps sessions in process memory. A restart loses them.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreate(userID).Clone(), nil
}

func (r *MemoryRepository) Update(_ context.Context, userID string, patch Patch) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.getOrCreate(userID)
	updated := current.Apply(patch, r.now())
	*current = updated
	return updated.Clone(), nil
}

func (r *MemoryRepository) ClearCart(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getOrCreate(userID).Cart = []string{}
	return nil
}

func (r *MemoryRepository) Lookup(_ context.Context, userID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.Clone(), nil
}

func (r *MemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

// getOrCreate must be called with mu held.
func (r *MemoryRepository) getOrCreate(userID string) *Session {
	if s, ok := r.sessions[userID]; ok {
		return s
	}
	s := New(userID, r.now())
	r.sessions[userID] = &s
	return &s
}
