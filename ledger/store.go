/*
store.go - Persistence interface for engine snapshots

PURPOSE:
  The Engine keeps its state in memory. Durable storage is a collaborator
  that receives a full Snapshot after every successful event and hands it
  back at startup. The Engine never calls the store itself: the caller
  decides when to flush, so a slow disk never sits inside the write lock.

FLUSH CONTRACT:
  1. Caller submits an event; the Engine commits it in memory.
  2. Caller takes ExportSnapshot(), a consistent view of ledger + journal.
  3. Caller passes it to SnapshotStore.Save.

  Save must be all-or-nothing. Journal rows are append-only in every
  implementation; only account balances and invoice payment fields are
  ever rewritten.

  Replace is the one exception: after ImportSnapshot or Reset the stored
  state is swapped wholesale for the new snapshot.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, durable
  - ledger/store/memory.go: in-memory, for tests and dev

SEE ALSO:
  - snapshot.go: Snapshot layout and import validation
*/
package ledger

import "context"

// SnapshotStore persists and reloads engine snapshots.
type SnapshotStore interface {
	// Save persists snap atomically.
	Save(ctx context.Context, snap Snapshot) error

	// Replace discards everything stored and persists snap atomically.
	Replace(ctx context.Context, snap Snapshot) error

	// Load returns the last saved snapshot. found is false when nothing has
	// been saved yet.
	Load(ctx context.Context) (snap Snapshot, found bool, err error)
}
