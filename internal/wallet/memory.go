package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryStore is a concurrency-safe in-memory wallet store for tests. It
// implements storage.Snapshotter so the memory transaction runner can roll it
// back.
type MemoryStore struct {
	mu      sync.RWMutex
	wallets map[string]Wallet
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{wallets: make(map[string]Wallet)}
}

// Snapshot captures the full store state.
func (s *MemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]Wallet, len(s.wallets))
	for k, v := range s.wallets {
		cp[k] = v
	}
	return cp
}

// Restore replaces the store state with a previously captured snapshot.
func (s *MemoryStore) Restore(snap any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets = snap.(map[string]Wallet)
}

func (s *MemoryStore) Create(_ context.Context, w Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.ID] = w
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (s *MemoryStore) GetByOwner(_ context.Context, ownerID string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.wallets {
		if w.OwnerID == ownerID {
			return w, nil
		}
	}
	return Wallet{}, ErrNotFound
}

func (s *MemoryStore) GetByType(_ context.Context, t Type) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		found  bool
		oldest Wallet
	)
	for _, w := range s.wallets {
		if w.Type != t {
			continue
		}
		if !found || w.CreatedAt.Before(oldest.CreatedAt) {
			oldest = w
			found = true
		}
	}
	if !found {
		return Wallet{}, ErrNotFound
	}
	return oldest, nil
}

func (s *MemoryStore) Credit(_ context.Context, id string, amount decimal.Decimal) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	if !w.Active() {
		return Wallet{}, ErrInactive
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now().UTC()
	s.wallets[id] = w
	return w, nil
}

func (s *MemoryStore) ConditionalDebit(_ context.Context, id string, amount, required decimal.Decimal) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	if !w.Active() {
		return Wallet{}, ErrInactive
	}
	if w.Balance.LessThan(required) || w.Balance.Sub(amount).LessThan(w.MinBalance) {
		return Wallet{}, ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(amount)
	w.DailySpent = w.DailySpent.Add(amount)
	w.MonthlySpent = w.MonthlySpent.Add(amount)
	w.UpdatedAt = time.Now().UTC()
	s.wallets[id] = w
	return w, nil
}

func (s *MemoryStore) ResetLimits(_ context.Context, id string, daily, monthly bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return ErrNotFound
	}
	if daily {
		w.DailySpent = decimal.Zero
	}
	if monthly {
		w.MonthlySpent = decimal.Zero
	}
	w.LastResetAt = at.UTC()
	s.wallets[id] = w
	return nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return ErrNotFound
	}
	w.Status = status
	w.UpdatedAt = time.Now().UTC()
	s.wallets[id] = w
	return nil
}
