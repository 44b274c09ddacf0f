/*
engine.go - Atomic event processing

PURPOSE:
  The Engine is the single entry point for business events. It owns the
  Account Ledger, the Journal and the event records, and serializes every
  write behind one lock.

EVENT FLOW (one write lock held throughout):
  1. Validate input (struct tags, then positive amounts)
  2. Look up referenced records (invoice for collections/returns)
  3. Posting Rules Engine computes the posting set
  4. Resolve every account and check the set balances
  5. Append transaction + entries to the Journal
  6. Apply all balance deltas (journal lines + roll-ups)
  7. Create/update the event record

  Steps 1-4 can fail; 5-7 cannot once 4 succeeded. A failing event
  therefore leaves no trace: no journal line, no balance change, no
  consumed id.

READS:
  Reports and listings take the read lock. They may run in parallel with
  each other but never observe a half-applied event.

ERRORS:
  Validation, not-found and exceeds-outstanding errors are returned to the
  caller. Unbalanced entries and unknown accounts are defects: they are
  logged at Error level before being returned.

SEE ALSO:
  - posting.go: the rules
  - snapshot.go: ExportSnapshot / ImportSnapshot
*/
package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	mu sync.RWMutex

	chart    []Account
	accounts *AccountLedger
	journal  *Journal
	records  *records

	validate *validator.Validate
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithChart replaces the default chart of accounts. Opening balances on the
// given accounts are kept.
func WithChart(chart []Account) Option {
	return func(e *Engine) {
		e.chart = append([]Account(nil), chart...)
	}
}

// NewEngine creates an engine seeded with the chart of accounts.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		chart:    DefaultChart(),
		validate: newValidator(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.accounts = NewAccountLedger(e.chart)
	e.journal = NewJournal()
	e.records = newRecords()
	return e
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// SubmitSale records a sale and returns the created invoice. Cash sales are
// paid in full; credit sales start open with the whole amount outstanding.
func (e *Engine) SubmitSale(ctx context.Context, in SaleInput) (SalesInvoice, error) {
	if err := ctx.Err(); err != nil {
		return SalesInvoice{}, err
	}
	if err := validateInput(e.validate, in); err != nil {
		return SalesInvoice{}, err
	}
	lines, amount, cogs := aggregateItems(in.Items)
	set, err := SalePostings(in.PaymentMethod, amount, cogs)
	if err != nil {
		return SalesInvoice{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	number := invoiceNumber(e.records.nextInvoiceID)
	tx, err := e.postLocked(Transaction{
		Date:        in.Date,
		Reference:   number,
		Description: "Sale to " + in.CustomerName,
		Type:        TxSale,
		TotalAmount: RoundMoney(amount),
	}, set)
	if err != nil {
		return SalesInvoice{}, err
	}

	inv := SalesInvoice{
		InvoiceNumber:     number,
		CustomerName:      in.CustomerName,
		Date:              in.Date,
		PaymentMethod:     in.PaymentMethod,
		TotalAmount:       tx.TotalAmount,
		PaidAmount:        decimal.Zero,
		OutstandingAmount: tx.TotalAmount,
		TransactionID:     tx.ID,
	}
	if in.PaymentMethod == PaymentCash {
		inv.PaidAmount, inv.OutstandingAmount = tx.TotalAmount, decimal.Zero
	}
	inv.Status = DeriveStatus(inv.TotalAmount, inv.OutstandingAmount)

	items := make([]SalesItem, len(lines))
	for i, l := range lines {
		items[i] = SalesItem{
			Description: l.Input.Description,
			Quantity:    l.Input.Quantity,
			UnitPrice:   l.Input.UnitPrice,
			CogsUnit:    l.Input.CogsUnit,
			LineTotal:   l.LineTotal,
			LineCogs:    l.LineCogs,
		}
	}
	inv, _ = e.records.addInvoice(inv, items)

	e.logger.Info("sale recorded",
		zap.Int64("invoice_id", int64(inv.ID)),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("payment_method", string(inv.PaymentMethod)),
		zap.String("amount", inv.TotalAmount.StringFixed(MoneyPlaces)),
		zap.String("cogs", RoundMoney(cogs).StringFixed(MoneyPlaces)),
	)
	return inv, nil
}

// SubmitCollection records cash received against an invoice.
func (e *Engine) SubmitCollection(ctx context.Context, in CollectionInput) (Collection, error) {
	if err := ctx.Err(); err != nil {
		return Collection{}, err
	}
	if err := validateInput(e.validate, in); err != nil {
		return Collection{}, err
	}
	amount := RoundMoney(in.Amount)
	set, err := CollectionPostings(amount)
	if err != nil {
		return Collection{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inv, ok := e.records.invoice(in.InvoiceID)
	if !ok {
		return Collection{}, &NotFoundError{Kind: "invoice", ID: int64(in.InvoiceID)}
	}
	if amount.GreaterThan(inv.OutstandingAmount) {
		return Collection{}, &ExceedsOutstandingError{
			InvoiceID:   inv.ID,
			Outstanding: inv.OutstandingAmount,
			Requested:   amount,
		}
	}

	reference := in.Reference
	if reference == "" {
		reference = collectionReference(e.records.nextCollectionID)
	}
	tx, err := e.postLocked(Transaction{
		Date:        in.Date,
		Reference:   reference,
		Description: "Collection on " + inv.InvoiceNumber,
		Type:        TxCollection,
		TotalAmount: amount,
	}, set)
	if err != nil {
		return Collection{}, err
	}

	inv.applyPayment(amount)
	c := e.records.addCollection(Collection{
		InvoiceID:     inv.ID,
		Date:          in.Date,
		Amount:        amount,
		PaymentMethod: in.PaymentMethod,
		Reference:     reference,
		Notes:         in.Notes,
		TransactionID: tx.ID,
	})

	e.logger.Info("collection recorded",
		zap.Int64("collection_id", int64(c.ID)),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("amount", amount.StringFixed(MoneyPlaces)),
		zap.String("outstanding", inv.OutstandingAmount.StringFixed(MoneyPlaces)),
		zap.String("status", string(inv.Status)),
	)
	return c, nil
}

// SubmitReturn records a sales return or allowance against an invoice. The
// settlement side follows the invoice's original payment method. The return
// amount is not capped by what was originally sold.
func (e *Engine) SubmitReturn(ctx context.Context, in ReturnInput) (SalesReturn, error) {
	if err := ctx.Err(); err != nil {
		return SalesReturn{}, err
	}
	if err := validateInput(e.validate, in); err != nil {
		return SalesReturn{}, err
	}
	lines, amount, cogs := aggregateItems(in.Items)

	e.mu.Lock()
	defer e.mu.Unlock()

	inv, ok := e.records.invoice(in.InvoiceID)
	if !ok {
		return SalesReturn{}, &NotFoundError{Kind: "invoice", ID: int64(in.InvoiceID)}
	}
	set, err := ReturnPostings(inv.PaymentMethod, amount, cogs)
	if err != nil {
		return SalesReturn{}, err
	}

	number := returnNumber(e.records.nextReturnID)
	tx, err := e.postLocked(Transaction{
		Date:        in.Date,
		Reference:   number,
		Description: "Sales " + string(in.ReturnType) + " on " + inv.InvoiceNumber,
		Type:        TxReturn,
		TotalAmount: RoundMoney(amount),
	}, set)
	if err != nil {
		return SalesReturn{}, err
	}

	items := make([]ReturnItem, len(lines))
	for i, l := range lines {
		items[i] = ReturnItem{
			Description: l.Input.Description,
			Quantity:    l.Input.Quantity,
			UnitPrice:   l.Input.UnitPrice,
			CogsUnit:    l.Input.CogsUnit,
			LineTotal:   l.LineTotal,
			LineCogs:    l.LineCogs,
		}
	}
	ret, _ := e.records.addReturn(SalesReturn{
		ReturnNumber:  number,
		InvoiceID:     inv.ID,
		Date:          in.Date,
		TotalAmount:   tx.TotalAmount,
		TotalCogs:     RoundMoney(cogs),
		ReturnType:    in.ReturnType,
		Reason:        in.Reason,
		TransactionID: tx.ID,
	}, items)

	e.logger.Info("sales return recorded",
		zap.Int64("return_id", int64(ret.ID)),
		zap.String("return_number", ret.ReturnNumber),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("amount", ret.TotalAmount.StringFixed(MoneyPlaces)),
		zap.String("cogs", ret.TotalCogs.StringFixed(MoneyPlaces)),
	)
	return ret, nil
}

// postLocked appends the posting set to the journal and applies its deltas.
// Every check runs before the first mutation. Caller holds the write lock.
func (e *Engine) postLocked(tx Transaction, set PostingSet) (Transaction, error) {
	entries, err := set.Entries(e.accounts)
	if err != nil {
		return Transaction{}, e.defect(tx, err)
	}
	deltas, err := set.Deltas(e.accounts)
	if err != nil {
		return Transaction{}, e.defect(tx, err)
	}
	if err := CheckBalanced(e.journal.nextTransactionID, entries); err != nil {
		return Transaction{}, e.defect(tx, err)
	}

	stored, _, err := e.journal.Append(tx, entries)
	if err != nil {
		return Transaction{}, e.defect(tx, err)
	}
	if err := e.accounts.ApplyDeltas(deltas); err != nil {
		// Unreachable: every code was resolved by set.Deltas above.
		return Transaction{}, e.defect(stored, err)
	}
	return stored, nil
}

// defect logs internal invariant violations loudly and passes every error
// through unchanged.
func (e *Engine) defect(tx Transaction, err error) error {
	if IsInternal(err) {
		fields := []zap.Field{
			zap.String("tx_type", string(tx.Type)),
			zap.String("reference", tx.Reference),
			zap.Error(err),
		}
		var unbalanced *UnbalancedEntryError
		if errors.As(err, &unbalanced) {
			fields = append(fields,
				zap.String("debits", unbalanced.Debits.String()),
				zap.String("credits", unbalanced.Credits.String()))
		}
		e.logger.Error("posting invariant violated; event aborted", fields...)
	}
	return err
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// BalanceSheet builds the balance sheet from current balances.
func (e *Engine) BalanceSheet() BalanceSheet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return BuildBalanceSheet(e.accounts)
}

// Stats builds accounting statistics from current records and balances.
func (e *Engine) Stats() AccountingStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return BuildStats(e.accounts, e.records.invoices, e.records.collections, e.records.returns)
}

// Accounts lists the chart of accounts with balances, in code order.
func (e *Engine) Accounts() []Account {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.accounts.List()
}

// Account returns one account by code.
func (e *Engine) Account(code AccountCode) (Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	acc, ok := e.accounts.GetByCode(code)
	if !ok {
		return Account{}, &UnknownAccountError{Code: code}
	}
	return acc, nil
}

// JournalEntries lists every posting, newest date first.
func (e *Engine) JournalEntries() []JournalEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.journal.List()
}

// Transactions lists every transaction, newest date first.
func (e *Engine) Transactions() []Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.journal.Transactions()
}

// TransactionEntries returns a transaction with its entries.
func (e *Engine) TransactionEntries(id TransactionID) (Transaction, []JournalEntry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	tx, ok := e.journal.Transaction(id)
	if !ok {
		return Transaction{}, nil, &NotFoundError{Kind: "transaction", ID: int64(id)}
	}
	return tx, e.journal.Entries(id), nil
}

// Invoices lists sales invoices, newest date first.
func (e *Engine) Invoices() []SalesInvoice {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.records.listInvoices()
}

// Invoice returns an invoice with its items.
func (e *Engine) Invoice(id InvoiceID) (SalesInvoice, []SalesItem, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	inv, ok := e.records.invoice(id)
	if !ok {
		return SalesInvoice{}, nil, &NotFoundError{Kind: "invoice", ID: int64(id)}
	}
	return *inv, e.records.itemsOfInvoice(id), nil
}

// Collections lists collections, newest date first.
func (e *Engine) Collections() []Collection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.records.listCollections()
}

// Returns lists sales returns, newest date first.
func (e *Engine) Returns() []SalesReturn {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.records.listReturns()
}

// Return returns a sales return with its items.
func (e *Engine) Return(id ReturnID) (SalesReturn, []ReturnItem, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, ok := e.records.returnIdx[id]
	if !ok {
		return SalesReturn{}, nil, &NotFoundError{Kind: "return", ID: int64(id)}
	}
	return e.records.returns[i], e.records.itemsOfReturn(id), nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// ExportSnapshot returns a consistent copy of the whole state. Between two
// events the ledger and journal always agree, so any snapshot is safe to
// persist.
func (e *Engine) ExportSnapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.exportLocked()
}

// ImportSnapshot replaces the whole state with snap. The snapshot is fully
// validated first; on error the current state is untouched. Counters never
// move backwards.
func (e *Engine) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state, err := buildState(e.chart, snap)
	if err != nil {
		if IsInternal(err) {
			e.logger.Error("snapshot rejected", zap.Error(err))
		}
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.swapLocked(state, e.countersLocked())

	e.logger.Info("snapshot imported",
		zap.Int("transactions", len(snap.Transactions)),
		zap.Int("journal_entries", len(snap.JournalEntries)),
		zap.Int("invoices", len(snap.Invoices)),
	)
	return nil
}

// Reset clears every record and restores the seeded chart. Id counters are
// kept so ids issued before the reset are never reused.
func (e *Engine) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	counters := e.countersLocked()
	state, err := buildState(e.chart, Snapshot{Counters: counters})
	if err != nil {
		return err
	}
	e.swapLocked(state, counters)
	e.logger.Info("engine reset")
	return nil
}

// swapLocked installs state, keeping every counter at least at floor.
func (e *Engine) swapLocked(state *restoredState, floor Counters) {
	state.journal.nextTransactionID = max(state.journal.nextTransactionID, floor.Transaction)
	state.journal.nextEntryID = max(state.journal.nextEntryID, floor.JournalEntry)
	r := state.records
	r.nextInvoiceID = max(r.nextInvoiceID, floor.Invoice)
	r.nextSalesItemID = max(r.nextSalesItemID, floor.SalesItem)
	r.nextCollectionID = max(r.nextCollectionID, floor.Collection)
	r.nextReturnID = max(r.nextReturnID, floor.Return)
	r.nextReturnItemID = max(r.nextReturnItemID, floor.ReturnItem)

	e.accounts = state.accounts
	e.journal = state.journal
	e.records = state.records
}
