package ledger_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/bookkeeping-engine/ledger"
)

func populatedEngine(t *testing.T) *ledger.Engine {
	t.Helper()
	e := newTestEngine(t)
	ctx := context.Background()

	cashInv, err := e.SubmitSale(ctx, sale("Acme", ledger.PaymentCash, item("Widget", "2", "100", "40")))
	require.NoError(t, err)
	creditInv, err := e.SubmitSale(ctx, sale("Globex", ledger.PaymentCredit, item("Service", "1", "500", "200")))
	require.NoError(t, err)
	_, err = e.SubmitCollection(ctx, ledger.CollectionInput{InvoiceID: creditInv.ID, Date: day, Amount: money("200"), PaymentMethod: "cash"})
	require.NoError(t, err)
	_, err = e.SubmitReturn(ctx, ledger.ReturnInput{
		InvoiceID: cashInv.ID, Date: day, ReturnType: ledger.ReturnGoods,
		Items: []ledger.ItemInput{item("Widget", "1", "100", "40")},
	})
	require.NoError(t, err)
	return e
}

func TestSnapshot_RoundTripThroughJSON(t *testing.T) {
	// GIVEN: Books with every event type
	// WHEN: Exported, serialized, and imported into a fresh engine
	// THEN: Reports match and new ids continue after the old ones

	src := populatedEngine(t)
	snap := src.ExportSnapshot()

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded ledger.Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))

	dst := newTestEngine(t)
	require.NoError(t, dst.ImportSnapshot(context.Background(), decoded))

	assert.Equal(t, src.BalanceSheet().TotalAssets.String(), dst.BalanceSheet().TotalAssets.String())
	assert.Equal(t, src.Stats().GrossProfit.String(), dst.Stats().GrossProfit.String())
	assert.Len(t, dst.JournalEntries(), len(src.JournalEntries()))
	assert.Len(t, dst.Invoices(), 2)
	assertBooksBalanced(t, dst)

	inv, err := dst.SubmitSale(context.Background(), sale("Initech", ledger.PaymentCash, item("Widget", "1", "10", "4")))
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoiceID(3), inv.ID)
	assert.Equal(t, ledger.TransactionID(5), inv.TransactionID)
}

func TestSnapshot_Import_RaisesCountersPastExistingIDs(t *testing.T) {
	snap := populatedEngine(t).ExportSnapshot()
	snap.Counters = ledger.Counters{}

	e := newTestEngine(t)
	require.NoError(t, e.ImportSnapshot(context.Background(), snap))

	c, err := e.SubmitCollection(context.Background(), ledger.CollectionInput{InvoiceID: 2, Date: day, Amount: money("1"), PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.Equal(t, ledger.CollectionID(2), c.ID)
	assert.Equal(t, "COL-000002", c.Reference)
}

func TestSnapshot_Import_MissingAccountsAreSeeded(t *testing.T) {
	snap := populatedEngine(t).ExportSnapshot()
	var kept []ledger.Account
	for _, acc := range snap.Accounts {
		if acc.Code != ledger.CodeAccountsPayable {
			kept = append(kept, acc)
		}
	}
	snap.Accounts = kept

	e := newTestEngine(t)
	require.NoError(t, e.ImportSnapshot(context.Background(), snap))

	acc, err := e.Account(ledger.CodeAccountsPayable)
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())
}

func TestSnapshot_Import_RejectsBadData(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ledger.Snapshot)
		wantErr error
	}{
		{
			name: "unbalanced transaction",
			mutate: func(s *ledger.Snapshot) {
				s.JournalEntries[0].DebitAmount = s.JournalEntries[0].DebitAmount.Add(money("5"))
			},
			wantErr: ledger.ErrUnbalancedEntry,
		},
		{
			name: "unknown account",
			mutate: func(s *ledger.Snapshot) {
				s.Accounts = append(s.Accounts, ledger.Account{Code: "9999", Name: "Suspense"})
			},
			wantErr: ledger.ErrUnknownAccount,
		},
		{
			name: "entry without transaction",
			mutate: func(s *ledger.Snapshot) {
				s.JournalEntries[0].TransactionID = 999
			},
			wantErr: ledger.ErrNotFound,
		},
		{
			name: "inconsistent invoice",
			mutate: func(s *ledger.Snapshot) {
				s.Invoices[1].PaidAmount = money("1")
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "collection for missing invoice",
			mutate: func(s *ledger.Snapshot) {
				s.Collections[0].InvoiceID = 77
			},
			wantErr: ledger.ErrNotFound,
		},
		{
			name: "duplicate transaction id",
			mutate: func(s *ledger.Snapshot) {
				s.Transactions[1].ID = s.Transactions[0].ID
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "duplicate collection id",
			mutate: func(s *ledger.Snapshot) {
				again := s.Collections[0]
				again.Amount = money("50")
				s.Collections = append(s.Collections, again)
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "non-positive collection id",
			mutate: func(s *ledger.Snapshot) {
				s.Collections[0].ID = 0
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "duplicate sales item id",
			mutate: func(s *ledger.Snapshot) {
				s.SalesItems[1].ID = s.SalesItems[0].ID
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "non-positive sales item id",
			mutate: func(s *ledger.Snapshot) {
				s.SalesItems[0].ID = -3
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "duplicate return item id",
			mutate: func(s *ledger.Snapshot) {
				s.ReturnItems = append(s.ReturnItems, s.ReturnItems[0])
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "non-positive return item id",
			mutate: func(s *ledger.Snapshot) {
				s.ReturnItems[0].ID = 0
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "accounting equation broken",
			mutate: func(s *ledger.Snapshot) {
				setBalance(s, ledger.CodeCash, money("999999"))
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "balance disagrees with journal",
			mutate: func(s *ledger.Snapshot) {
				// Both sides move together, so only the journal check catches it.
				addBalance(s, ledger.CodeCash, money("100"))
				addBalance(s, ledger.CodeShareCapital, money("100"))
			},
			wantErr: ledger.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := populatedEngine(t).ExportSnapshot()
			tt.mutate(&snap)

			e := newTestEngine(t)
			_, err := e.SubmitSale(context.Background(), sale("Keep", ledger.PaymentCash, item("x", "1", "10", "1")))
			require.NoError(t, err)
			before := e.ExportSnapshot()

			err = e.ImportSnapshot(context.Background(), snap)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, e.ExportSnapshot(), "failed import must not change state")
		})
	}
}

func TestSnapshot_Import_RejectedDuplicateLeavesBooksBalanced(t *testing.T) {
	snap := populatedEngine(t).ExportSnapshot()
	again := snap.Collections[0]
	again.Amount = money("50")
	snap.Collections = append(snap.Collections, again)

	e := newTestEngine(t)
	err := e.ImportSnapshot(context.Background(), snap)

	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "collections", verr.Fields[0].Field)
	assert.Empty(t, e.Collections())
	assert.True(t, e.BalanceSheet().IsBalanced())
}

func setBalance(s *ledger.Snapshot, code ledger.AccountCode, balance decimal.Decimal) {
	for i := range s.Accounts {
		if s.Accounts[i].Code == code {
			s.Accounts[i].Balance = balance
		}
	}
}

func addBalance(s *ledger.Snapshot, code ledger.AccountCode, delta decimal.Decimal) {
	for i := range s.Accounts {
		if s.Accounts[i].Code == code {
			s.Accounts[i].Balance = s.Accounts[i].Balance.Add(delta)
		}
	}
}

func TestSnapshot_IsEmpty(t *testing.T) {
	assert.True(t, ledger.Snapshot{}.IsEmpty())
	assert.False(t, populatedEngine(t).ExportSnapshot().IsEmpty())
}
