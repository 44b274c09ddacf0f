package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SNAPSHOT - Full serializable state for backup and restore
// =============================================================================

// Counters holds the next id to issue for every entity type. Counters only
// move forward; an id is never issued twice, even across reloads.
type Counters struct {
	Transaction  TransactionID `json:"transactions"`
	JournalEntry EntryID       `json:"journalEntries"`
	Invoice      InvoiceID     `json:"invoices"`
	SalesItem    SalesItemID   `json:"salesItems"`
	Collection   CollectionID  `json:"collections"`
	Return       ReturnID      `json:"returns"`
	ReturnItem   ReturnItemID  `json:"returnItems"`
}

// Snapshot is a structural dump of every entity collection plus counters.
type Snapshot struct {
	Accounts       []Account      `json:"accounts"`
	Transactions   []Transaction  `json:"transactions"`
	JournalEntries []JournalEntry `json:"journalEntries"`
	Invoices       []SalesInvoice `json:"invoices"`
	SalesItems     []SalesItem    `json:"salesItems"`
	Collections    []Collection   `json:"collections"`
	Returns        []SalesReturn  `json:"returns"`
	ReturnItems    []ReturnItem   `json:"returnItems"`
	Counters       Counters       `json:"counters"`
}

// IsEmpty reports whether the snapshot carries no records at all.
func (s Snapshot) IsEmpty() bool {
	return len(s.Accounts) == 0 && len(s.Transactions) == 0 && len(s.JournalEntries) == 0 &&
		len(s.Invoices) == 0 && len(s.Collections) == 0 && len(s.Returns) == 0
}

// exportLocked copies the engine state. Caller holds at least a read lock.
func (e *Engine) exportLocked() Snapshot {
	r := e.records
	return Snapshot{
		Accounts:       e.accounts.List(),
		Transactions:   append([]Transaction(nil), e.journal.transactions...),
		JournalEntries: append([]JournalEntry(nil), e.journal.entries...),
		Invoices:       append([]SalesInvoice(nil), r.invoices...),
		SalesItems:     append([]SalesItem(nil), r.salesItems...),
		Collections:    append([]Collection(nil), r.collections...),
		Returns:        append([]SalesReturn(nil), r.returns...),
		ReturnItems:    append([]ReturnItem(nil), r.returnItems...),
		Counters:       e.countersLocked(),
	}
}

func (e *Engine) countersLocked() Counters {
	return Counters{
		Transaction:  e.journal.nextTransactionID,
		JournalEntry: e.journal.nextEntryID,
		Invoice:      e.records.nextInvoiceID,
		SalesItem:    e.records.nextSalesItemID,
		Collection:   e.records.nextCollectionID,
		Return:       e.records.nextReturnID,
		ReturnItem:   e.records.nextReturnItemID,
	}
}

// =============================================================================
// IMPORT VALIDATION
// =============================================================================

// restoredState is a validated snapshot ready to be swapped in.
type restoredState struct {
	accounts *AccountLedger
	journal  *Journal
	records  *records
}

// buildState validates snap against chart and builds fresh components from
// it. Nothing is shared with the engine's live state.
func buildState(chart []Account, snap Snapshot) (*restoredState, error) {
	accounts, err := restoreAccounts(chart, snap.Accounts)
	if err != nil {
		return nil, err
	}
	if bs := BuildBalanceSheet(accounts); !bs.IsBalanced() {
		return nil, newValidationError("accounts", fmt.Sprintf("accounting equation does not hold: assets %s, liabilities and equity %s",
			bs.TotalAssets.StringFixed(MoneyPlaces), bs.TotalLiabilitiesAndEquity.StringFixed(MoneyPlaces)))
	}

	journal, err := restoreJournal(accounts, snap)
	if err != nil {
		return nil, err
	}
	if err := checkBalancesAgainstJournal(chart, accounts, snap.JournalEntries); err != nil {
		return nil, err
	}

	recs, err := restoreRecords(snap)
	if err != nil {
		return nil, err
	}

	return &restoredState{accounts: accounts, journal: journal, records: recs}, nil
}

// restoreAccounts overlays imported balances on the chart. Accounts missing
// from the snapshot keep their seeded balance; unknown codes are rejected.
func restoreAccounts(chart []Account, imported []Account) (*AccountLedger, error) {
	accounts := NewAccountLedger(chart)
	seen := make(map[AccountCode]bool, len(imported))
	for _, acc := range imported {
		if seen[acc.Code] {
			return nil, newValidationError("accounts", fmt.Sprintf("duplicate account %s", acc.Code))
		}
		seen[acc.Code] = true
		i, ok := accounts.index[acc.Code]
		if !ok {
			return nil, &UnknownAccountError{Code: acc.Code}
		}
		accounts.accounts[i].Balance = RoundMoney(acc.Balance)
	}
	return accounts, nil
}

func restoreJournal(accounts *AccountLedger, snap Snapshot) (*Journal, error) {
	txIDs := make(map[TransactionID]bool, len(snap.Transactions))
	var maxTx TransactionID
	for _, tx := range snap.Transactions {
		if tx.ID <= 0 || txIDs[tx.ID] {
			return nil, newValidationError("transactions", fmt.Sprintf("invalid or duplicate id %d", tx.ID))
		}
		txIDs[tx.ID] = true
		maxTx = max(maxTx, tx.ID)
	}

	byTx := make(map[TransactionID][]JournalEntry)
	entryIDs := make(map[EntryID]bool, len(snap.JournalEntries))
	var maxEntry EntryID
	for _, e := range snap.JournalEntries {
		if e.ID <= 0 || entryIDs[e.ID] {
			return nil, newValidationError("journalEntries", fmt.Sprintf("invalid or duplicate id %d", e.ID))
		}
		entryIDs[e.ID] = true
		maxEntry = max(maxEntry, e.ID)
		if !txIDs[e.TransactionID] {
			return nil, &NotFoundError{Kind: "transaction", ID: int64(e.TransactionID)}
		}
		if err := accounts.Resolve(e.AccountCode); err != nil {
			return nil, err
		}
		byTx[e.TransactionID] = append(byTx[e.TransactionID], e)
	}
	for _, tx := range snap.Transactions {
		if err := CheckBalanced(tx.ID, byTx[tx.ID]); err != nil {
			return nil, err
		}
	}

	journal := NewJournal()
	journal.restore(snap.Transactions, snap.JournalEntries,
		max(snap.Counters.Transaction, maxTx+1),
		max(snap.Counters.JournalEntry, maxEntry+1))
	return journal, nil
}

// checkBalancesAgainstJournal requires every journal-backed balance to equal
// its seed plus the natural deltas of its entries. Share Capital is skipped:
// its roll-up is not journaled, and the accounting equation already pins it.
func checkBalancesAgainstJournal(chart []Account, accounts *AccountLedger, entries []JournalEntry) error {
	expected := make(map[AccountCode]decimal.Decimal, len(accounts.accounts))
	for _, acc := range NewAccountLedger(chart).accounts {
		expected[acc.Code] = acc.Balance
	}
	for _, e := range entries {
		acc, _ := accounts.GetByCode(e.AccountCode)
		expected[e.AccountCode] = expected[e.AccountCode].Add(naturalDelta(acc.NormalBalance, e.DebitAmount, e.CreditAmount))
	}
	for _, acc := range accounts.accounts {
		if acc.Code == CodeShareCapital {
			continue
		}
		if want := expected[acc.Code]; !ApproxEqual(acc.Balance, want) {
			return newValidationError("accounts", fmt.Sprintf("account %s balance %s does not match journal total %s",
				acc.Code, acc.Balance.StringFixed(MoneyPlaces), RoundMoney(want).StringFixed(MoneyPlaces)))
		}
	}
	return nil
}

func restoreRecords(snap Snapshot) (*records, error) {
	r := newRecords()

	var maxInvoice InvoiceID
	for _, inv := range snap.Invoices {
		if inv.ID <= 0 {
			return nil, newValidationError("invoices", fmt.Sprintf("invalid id %d", inv.ID))
		}
		if _, dup := r.invoiceIdx[inv.ID]; dup {
			return nil, newValidationError("invoices", fmt.Sprintf("duplicate id %d", inv.ID))
		}
		if !inv.Consistent() {
			return nil, newValidationError("invoices", fmt.Sprintf("invoice %d: paid + outstanding does not match total or status", inv.ID))
		}
		r.invoiceIdx[inv.ID] = len(r.invoices)
		r.invoices = append(r.invoices, inv)
		maxInvoice = max(maxInvoice, inv.ID)
	}

	var maxSalesItem SalesItemID
	salesItemIDs := make(map[SalesItemID]bool, len(snap.SalesItems))
	for _, item := range snap.SalesItems {
		if item.ID <= 0 || salesItemIDs[item.ID] {
			return nil, newValidationError("salesItems", fmt.Sprintf("invalid or duplicate id %d", item.ID))
		}
		salesItemIDs[item.ID] = true
		if _, ok := r.invoiceIdx[item.InvoiceID]; !ok {
			return nil, &NotFoundError{Kind: "invoice", ID: int64(item.InvoiceID)}
		}
		r.salesItems = append(r.salesItems, item)
		maxSalesItem = max(maxSalesItem, item.ID)
	}

	var maxCollection CollectionID
	collectionIDs := make(map[CollectionID]bool, len(snap.Collections))
	for _, c := range snap.Collections {
		if c.ID <= 0 || collectionIDs[c.ID] {
			return nil, newValidationError("collections", fmt.Sprintf("invalid or duplicate id %d", c.ID))
		}
		collectionIDs[c.ID] = true
		if _, ok := r.invoiceIdx[c.InvoiceID]; !ok {
			return nil, &NotFoundError{Kind: "invoice", ID: int64(c.InvoiceID)}
		}
		r.collections = append(r.collections, c)
		maxCollection = max(maxCollection, c.ID)
	}

	var maxReturn ReturnID
	for _, ret := range snap.Returns {
		if _, ok := r.invoiceIdx[ret.InvoiceID]; !ok {
			return nil, &NotFoundError{Kind: "invoice", ID: int64(ret.InvoiceID)}
		}
		if _, dup := r.returnIdx[ret.ID]; dup || ret.ID <= 0 {
			return nil, newValidationError("returns", fmt.Sprintf("invalid or duplicate id %d", ret.ID))
		}
		r.returnIdx[ret.ID] = len(r.returns)
		r.returns = append(r.returns, ret)
		maxReturn = max(maxReturn, ret.ID)
	}

	var maxReturnItem ReturnItemID
	returnItemIDs := make(map[ReturnItemID]bool, len(snap.ReturnItems))
	for _, item := range snap.ReturnItems {
		if item.ID <= 0 || returnItemIDs[item.ID] {
			return nil, newValidationError("returnItems", fmt.Sprintf("invalid or duplicate id %d", item.ID))
		}
		returnItemIDs[item.ID] = true
		if _, ok := r.returnIdx[item.ReturnID]; !ok {
			return nil, &NotFoundError{Kind: "return", ID: int64(item.ReturnID)}
		}
		r.returnItems = append(r.returnItems, item)
		maxReturnItem = max(maxReturnItem, item.ID)
	}

	c := snap.Counters
	r.nextInvoiceID = max(c.Invoice, maxInvoice+1)
	r.nextSalesItemID = max(c.SalesItem, maxSalesItem+1)
	r.nextCollectionID = max(c.Collection, maxCollection+1)
	r.nextReturnID = max(c.Return, maxReturn+1)
	r.nextReturnItemID = max(c.ReturnItem, maxReturnItem+1)
	return r, nil
}
