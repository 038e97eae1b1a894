package ledger

import (
	"context"
	"sort"
	"sync"
)

// MemoryLedger is a concurrency-safe in-memory ledger for tests. It
// implements storage.Snapshotter for rollback under the memory transaction
// runner.
type MemoryLedger struct {
	mu   sync.RWMutex
	byID map[string]Transaction
}

// NewMemoryLedger constructs an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{byID: make(map[string]Transaction)}
}

// Snapshot captures the full ledger state.
func (l *MemoryLedger) Snapshot() any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make(map[string]Transaction, len(l.byID))
	for k, v := range l.byID {
		cp[k] = v
	}
	return cp
}

// Restore replaces the ledger state with a previously captured snapshot.
func (l *MemoryLedger) Restore(snap any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID = snap.(map[string]Transaction)
}

func (l *MemoryLedger) Append(_ context.Context, txn Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.byID {
		if existing.Reference == txn.Reference {
			return ErrDuplicateReference
		}
	}
	l.byID[txn.ID] = txn
	return nil
}

func (l *MemoryLedger) Get(_ context.Context, id string) (Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	txn, ok := l.byID[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return txn, nil
}

func (l *MemoryLedger) GetByReference(_ context.Context, reference string) (Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, txn := range l.byID {
		if txn.Reference == reference {
			return txn, nil
		}
	}
	return Transaction{}, ErrNotFound
}

func (l *MemoryLedger) UpdateStatus(_ context.Context, id string, status TxnStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	txn, ok := l.byID[id]
	if !ok {
		return ErrNotFound
	}
	if txn.Status != StatusPending {
		return ErrStatusFinal
	}
	txn.Status = status
	l.byID[id] = txn
	return nil
}

func (l *MemoryLedger) ListByWallet(_ context.Context, walletID string, limit int) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	var txns []Transaction
	for _, txn := range l.byID {
		if txn.FromWalletID == walletID || txn.ToWalletID == walletID {
			txns = append(txns, txn)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].CreatedAt.After(txns[j].CreatedAt) })
	if len(txns) > limit {
		txns = txns[:limit]
	}
	return txns, nil
}
