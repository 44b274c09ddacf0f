package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/bookkeeping-engine/ledger"
	"github.com/warp/bookkeeping-engine/ledger/store"
)

func TestMemory_LoadBeforeSave(t *testing.T) {
	m := store.NewMemory()

	_, found, err := m.Load(context.Background())

	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemory_SaveIsolatesCaller(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	snap := ledger.Snapshot{
		Accounts: ledger.DefaultChart(),
		Counters: ledger.Counters{Transaction: 4},
	}

	require.NoError(t, m.Save(ctx, snap))
	snap.Accounts[0].Name = "changed"

	got, found, err := m.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Cash", got.Accounts[0].Name)
	assert.Equal(t, ledger.TransactionID(4), got.Counters.Transaction)
	assert.Equal(t, 1, m.Saves())
}

func TestMemory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.NewMemory().Save(ctx, ledger.Snapshot{})

	assert.ErrorIs(t, err, context.Canceled)
}
