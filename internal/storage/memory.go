package storage

import (
	"context"
	"sync"
)

// Snapshotter is implemented by in-memory stores that can capture and restore
// their full state, giving the memory runner real rollback semantics.
type Snapshotter interface {
	Snapshot() any
	Restore(any)
}

type memKey struct{}

// MemoryRunner serializes units of work with a mutex and rolls back by
// restoring store snapshots. It exists so service tests exercise the same
// all-or-nothing contract as the Postgres runner.
type MemoryRunner struct {
	mu     sync.Mutex
	stores []Snapshotter
}

// NewMemoryRunner builds a runner over the given in-memory stores.
func NewMemoryRunner(stores ...Snapshotter) *MemoryRunner {
	return &MemoryRunner{stores: stores}
}

// WithinTx runs fn under the runner lock, restoring all store snapshots when
// fn returns an error. Nested calls join the outer unit.
func (r *MemoryRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memKey{}) != nil {
		return fn(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snaps := make([]any, len(r.stores))
	for i, s := range r.stores {
		snaps[i] = s.Snapshot()
	}

	if err := fn(context.WithValue(ctx, memKey{}, struct{}{})); err != nil {
		for i, s := range r.stores {
			s.Restore(snaps[i])
		}
		return err
	}
	return nil
}
