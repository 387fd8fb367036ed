package repository

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryHandoffRepository is the single-process handoff store. Expired
// entries are dropped when touched or by Purge.
type MemoryHandoffRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryHandoffRepository creates a new MemoryHandoffRepository.
// A ttl of zero keeps entries until they are taken.
func NewMemoryHandoffRepository(ttl time.Duration) *MemoryHandoffRepository {
	return &MemoryHandoffRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put stores a copy of payload under a new id.
func (r *MemoryHandoffRepository) Put(_ context.Context, payload []byte) (string, error) {
	id := newHandoffID()
	e := memoryEntry{payload: append([]byte(nil), payload...)}
	if r.ttl > 0 {
		e.expiresAt = r.now().Add(r.ttl)
	}

	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()
	return id, nil
}

// Take returns and removes the payload.
func (r *MemoryHandoffRepository) Take(_ context.Context, id string) ([]byte, error) {
	id, err := parseHandoffID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrHandoffNotFound
	}
	delete(r.entries, id)
	if r.expired(e) {
		return nil, ErrHandoffNotFound
	}
	return e.payload, nil
}

// Purge removes every expired entry and returns how many were dropped.
func (r *MemoryHandoffRepository) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.entries {
		if r.expired(e) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (r *MemoryHandoffRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *MemoryHandoffRepository) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !r.now().Before(e.expiresAt)
}
