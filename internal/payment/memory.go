package payment

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is a concurrency-safe in-memory intent store for tests.
// Locking getters behave like plain getters; the memory transaction runner
// already serializes units of work.
type MemoryRepository struct {
	mu      sync.RWMutex
	intents map[string]Intent
}

// NewMemoryRepository constructs an empty in-memory intent repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{intents: make(map[string]Intent)}
}

// Snapshot captures the full repository state.
func (r *MemoryRepository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]Intent, len(r.intents))
	for k, v := range r.intents {
		cp[k] = v
	}
	return cp
}

// Restore replaces the repository state with a previously captured snapshot.
func (r *MemoryRepository) Restore(snap any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = snap.(map[string]Intent)
}

func (r *MemoryRepository) Create(_ context.Context, intent Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents[intent.ID] = intent
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (Intent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	intent, ok := r.intents[id]
	if !ok {
		return Intent{}, ErrNotFound
	}
	return intent, nil
}

func (r *MemoryRepository) GetForUpdate(ctx context.Context, id string) (Intent, error) {
	return r.Get(ctx, id)
}

func (r *MemoryRepository) GetByExternalID(_ context.Context, externalTxnID string) (Intent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, intent := range r.intents {
		if intent.ExternalTxnID == externalTxnID {
			return intent, nil
		}
	}
	return Intent{}, ErrNotFound
}

func (r *MemoryRepository) GetByExternalIDForUpdate(ctx context.Context, externalTxnID string) (Intent, error) {
	return r.GetByExternalID(ctx, externalTxnID)
}

func (r *MemoryRepository) Update(_ context.Context, intent Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.intents[intent.ID]; !ok {
		return ErrNotFound
	}
	intent.UpdatedAt = time.Now().UTC()
	r.intents[intent.ID] = intent
	return nil
}
