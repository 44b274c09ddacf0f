/*
journal.go - Append-only posting log

PURPOSE:
  The Journal is the record of every posting the engine ever made. Account
  balances are a cached view of it (plus the Share Capital roll-up, see
  posting.go), so a journal line is never edited or removed.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. COMPOSITE: A transaction and all of its entries are appended together.
  3. BALANCED: For every transaction, sum(debit) == sum(credit) within 0.01.
     Append re-checks this on every batch even though the posting rules
     already produce balanced sets, so a broken rule can never reach the
     books.

ORDERING:
  List returns entries newest date first. Entries sharing a date keep
  insertion order, which is also id order.

SEE ALSO:
  - posting.go: builds the entries appended here
  - engine.go: appends under the write lock
*/
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// JOURNAL
// =============================================================================

type Journal struct {
	transactions []Transaction
	entries      []JournalEntry
	byTx         map[TransactionID][]int

	nextTransactionID TransactionID
	nextEntryID       EntryID
}

func NewJournal() *Journal {
	return &Journal{
		byTx:              make(map[TransactionID][]int),
		nextTransactionID: 1,
		nextEntryID:       1,
	}
}

// CheckBalanced validates a posting batch without appending it.
func CheckBalanced(txID TransactionID, entries []JournalEntry) error {
	if len(entries) < 2 {
		return newValidationError("entries", "a transaction needs at least two posting lines")
	}
	debits, credits := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.DebitAmount.IsNegative() || e.CreditAmount.IsNegative() {
			return newValidationError("entries", "posting amounts cannot be negative")
		}
		if e.DebitAmount.IsZero() && e.CreditAmount.IsZero() {
			return newValidationError("entries", "posting line for "+string(e.AccountCode)+" has no amount")
		}
		debits = debits.Add(e.DebitAmount)
		credits = credits.Add(e.CreditAmount)
	}
	if !ApproxEqual(debits, credits) {
		return &UnbalancedEntryError{TransactionID: txID, Debits: debits, Credits: credits}
	}
	return nil
}

// Append assigns ids to tx and its entries and stores them as one unit.
// Entries inherit the transaction's date, reference and description when
// their own are empty.
func (j *Journal) Append(tx Transaction, entries []JournalEntry) (Transaction, []JournalEntry, error) {
	tx.ID = j.nextTransactionID
	if err := CheckBalanced(tx.ID, entries); err != nil {
		return Transaction{}, nil, err
	}

	stored := make([]JournalEntry, len(entries))
	for i, e := range entries {
		e.ID = j.nextEntryID + EntryID(i)
		e.TransactionID = tx.ID
		if e.Date.IsZero() {
			e.Date = tx.Date
		}
		if e.Reference == "" {
			e.Reference = tx.Reference
		}
		if e.Description == "" {
			e.Description = tx.Description
		}
		e.DebitAmount = RoundMoney(e.DebitAmount)
		e.CreditAmount = RoundMoney(e.CreditAmount)
		stored[i] = e
	}

	j.nextTransactionID++
	j.nextEntryID += EntryID(len(entries))
	j.transactions = append(j.transactions, tx)
	for _, e := range stored {
		j.byTx[tx.ID] = append(j.byTx[tx.ID], len(j.entries))
		j.entries = append(j.entries, e)
	}

	result := make([]JournalEntry, len(stored))
	copy(result, stored)
	return tx, result, nil
}

// List returns all entries ordered by date descending.
func (j *Journal) List() []JournalEntry {
	result := make([]JournalEntry, len(j.entries))
	copy(result, j.entries)
	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Date.After(result[b].Date)
	})
	return result
}

// Entries returns the entries of one transaction in posting order.
func (j *Journal) Entries(txID TransactionID) []JournalEntry {
	idx := j.byTx[txID]
	result := make([]JournalEntry, len(idx))
	for i, pos := range idx {
		result[i] = j.entries[pos]
	}
	return result
}

// Transaction looks up a transaction by id.
func (j *Journal) Transaction(id TransactionID) (Transaction, bool) {
	for _, tx := range j.transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return Transaction{}, false
}

// Transactions returns all transactions ordered by date descending.
func (j *Journal) Transactions() []Transaction {
	result := make([]Transaction, len(j.transactions))
	copy(result, j.transactions)
	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Date.After(result[b].Date)
	})
	return result
}

// restore replaces the journal contents with previously exported data.
// Callers must have validated the data.
func (j *Journal) restore(txs []Transaction, entries []JournalEntry, nextTx TransactionID, nextEntry EntryID) {
	j.transactions = append([]Transaction(nil), txs...)
	j.entries = append([]JournalEntry(nil), entries...)
	sort.SliceStable(j.transactions, func(a, b int) bool { return j.transactions[a].ID < j.transactions[b].ID })
	sort.SliceStable(j.entries, func(a, b int) bool { return j.entries[a].ID < j.entries[b].ID })

	j.byTx = make(map[TransactionID][]int, len(j.transactions))
	for i, e := range j.entries {
		j.byTx[e.TransactionID] = append(j.byTx[e.TransactionID], i)
	}
	j.nextTransactionID = nextTx
	j.nextEntryID = nextEntry
}
