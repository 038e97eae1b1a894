package moneyrequest

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is a concurrency-safe in-memory request store for tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	requests map[string]MoneyRequest
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{requests: make(map[string]MoneyRequest)}
}

// Snapshot captures the full repository state.
func (r *MemoryRepository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]MoneyRequest, len(r.requests))
	for k, v := range r.requests {
		cp[k] = v
	}
	return cp
}

// Restore replaces the repository state with a previously captured snapshot.
func (r *MemoryRepository) Restore(snap any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = snap.(map[string]MoneyRequest)
}

// Create mirrors the partial unique index on the Postgres table: at most one
// PENDING request per (requester, payer) pair.
func (r *MemoryRepository) Create(_ context.Context, req MoneyRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.Status == StatusPending {
		for _, existing := range r.requests {
			if existing.RequesterID == req.RequesterID && existing.PayerID == req.PayerID && existing.Status == StatusPending {
				return ErrDuplicatePending
			}
		}
	}
	r.requests[req.ID] = req
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (MoneyRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return MoneyRequest{}, ErrNotFound
	}
	return req, nil
}

func (r *MemoryRepository) GetForUpdate(ctx context.Context, id string) (MoneyRequest, error) {
	return r.Get(ctx, id)
}

func (r *MemoryRepository) FindPending(_ context.Context, requesterID, payerID string) (MoneyRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, req := range r.requests {
		if req.RequesterID == requesterID && req.PayerID == payerID && req.Status == StatusPending {
			return req, nil
		}
	}
	return MoneyRequest{}, ErrNotFound
}

func (r *MemoryRepository) ListForActor(_ context.Context, actorID string, limit int) ([]MoneyRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	var reqs []MoneyRequest
	for _, req := range r.requests {
		if req.RequesterID == actorID || req.PayerID == actorID {
			reqs = append(reqs, req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	if len(reqs) > limit {
		reqs = reqs[:limit]
	}
	return reqs, nil
}

func (r *MemoryRepository) Update(_ context.Context, req MoneyRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return ErrNotFound
	}
	req.UpdatedAt = time.Now().UTC()
	r.requests[req.ID] = req
	return nil
}
