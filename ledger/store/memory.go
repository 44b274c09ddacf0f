// Package store provides SnapshotStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/bookkeeping-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	snap  ledger.Snapshot
	found bool
	saves int
}

func NewMemory() *Memory {
	return &Memory{}
}

// Save keeps a deep copy of snap, so later changes by the caller do not leak
// into the stored state.
func (m *Memory) Save(ctx context.Context, snap ledger.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = cloneSnapshot(snap)
	m.found = true
	m.saves++
	return nil
}

// Replace is Save: the memory store keeps no history to discard.
func (m *Memory) Replace(ctx context.Context, snap ledger.Snapshot) error {
	return m.Save(ctx, snap)
}

// Load returns a copy of the last saved snapshot.
func (m *Memory) Load(ctx context.Context) (ledger.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Snapshot{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.found {
		return ledger.Snapshot{}, false, nil
	}
	return cloneSnapshot(m.snap), true, nil
}

// Saves reports how many times Save succeeded.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func cloneSnapshot(s ledger.Snapshot) ledger.Snapshot {
	return ledger.Snapshot{
		Accounts:       append([]ledger.Account(nil), s.Accounts...),
		Transactions:   append([]ledger.Transaction(nil), s.Transactions...),
		JournalEntries: append([]ledger.JournalEntry(nil), s.JournalEntries...),
		Invoices:       append([]ledger.SalesInvoice(nil), s.Invoices...),
		SalesItems:     append([]ledger.SalesItem(nil), s.SalesItems...),
		Collections:    append([]ledger.Collection(nil), s.Collections...),
		Returns:        append([]ledger.SalesReturn(nil), s.Returns...),
		ReturnItems:    append([]ledger.ReturnItem(nil), s.ReturnItems...),
		Counters:       s.Counters,
	}
}

var _ ledger.SnapshotStore = (*Memory)(nil)
