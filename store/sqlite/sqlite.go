/*
Package sqlite provides a SQLite-backed ledger.SnapshotStore.

PURPOSE:
  Persists engine snapshots so the books survive a restart. The Engine
  keeps working state in memory; this store receives a full snapshot after
  every successful event and returns the last one at startup.

APPEND-ONLY ENFORCEMENT:
  Save never rewrites history:
  - transactions, journal_entries, sales_items, collections,
    sales_returns, return_items: INSERT ... ON CONFLICT(id) DO NOTHING
  - accounts: balance upserted
  - invoices: paid/outstanding/status upserted (collections change them)
  - counters: upserted
  Replace (import / reset) is the only path that deletes rows.

KEY TABLES:
  accounts:        Chart of accounts with current balances
  transactions:    One row per business event
  journal_entries: Posting lines, FK to transactions
  invoices:        Sales invoices with payment state
  sales_items:     Invoice lines, FK to invoices
  collections:     Cash received, FK to invoices
  sales_returns:   Returns and allowances, FK to invoices
  return_items:    Return lines, FK to sales_returns
  counters:        Next id per entity type

ENCODING:
  Amounts are stored as exact decimal TEXT, never REAL. Dates are RFC 3339
  TEXT in UTC.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Every Save/Replace runs in a single
  SQL transaction.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/books.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - ledger/store.go: SnapshotStore contract
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/bookkeeping-engine/ledger"
)

// ErrConflict is returned when a snapshot carries a record whose unique
// number is already stored under another id.
var ErrConflict = errors.New("conflicting record already stored")

// Store implements ledger.SnapshotStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		account_type TEXT NOT NULL,
		normal_balance TEXT NOT NULL,
		balance TEXT NOT NULL
	);

	-- Transactions (append-only)
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		reference TEXT NOT NULL,
		description TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		total_amount TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_date
		ON transactions(date DESC);

	-- Journal entries (append-only)
	CREATE TABLE IF NOT EXISTS journal_entries (
		id INTEGER PRIMARY KEY,
		transaction_id INTEGER NOT NULL REFERENCES transactions(id),
		account_code TEXT NOT NULL,
		account_name TEXT NOT NULL,
		debit_amount TEXT NOT NULL,
		credit_amount TEXT NOT NULL,
		date TEXT NOT NULL,
		reference TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_entries_tx
		ON journal_entries(transaction_id);
	CREATE INDEX IF NOT EXISTS idx_journal_entries_account
		ON journal_entries(account_code);

	CREATE TABLE IF NOT EXISTS invoices (
		id INTEGER PRIMARY KEY,
		invoice_number TEXT NOT NULL UNIQUE,
		customer_name TEXT NOT NULL,
		date TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		outstanding_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		transaction_id INTEGER NOT NULL REFERENCES transactions(id)
	);

	CREATE TABLE IF NOT EXISTS sales_items (
		id INTEGER PRIMARY KEY,
		invoice_id INTEGER NOT NULL REFERENCES invoices(id),
		description TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		cogs_unit TEXT NOT NULL,
		line_total TEXT NOT NULL,
		line_cogs TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS collections (
		id INTEGER PRIMARY KEY,
		invoice_id INTEGER NOT NULL REFERENCES invoices(id),
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		reference TEXT,
		notes TEXT,
		transaction_id INTEGER NOT NULL REFERENCES transactions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_collections_invoice
		ON collections(invoice_id);

	CREATE TABLE IF NOT EXISTS sales_returns (
		id INTEGER PRIMARY KEY,
		return_number TEXT NOT NULL UNIQUE,
		invoice_id INTEGER NOT NULL REFERENCES invoices(id),
		date TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		total_cogs TEXT NOT NULL,
		return_type TEXT NOT NULL,
		reason TEXT,
		transaction_id INTEGER NOT NULL REFERENCES transactions(id)
	);

	CREATE TABLE IF NOT EXISTS return_items (
		id INTEGER PRIMARY KEY,
		return_id INTEGER NOT NULL REFERENCES sales_returns(id),
		description TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		cogs_unit TEXT NOT NULL,
		line_total TEXT NOT NULL,
		line_cogs TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		next_id INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAVE
// =============================================================================

// Save persists snap. Rows already stored for immutable records are left
// untouched.
func (s *Store) Save(ctx context.Context, snap ledger.Snapshot) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return writeSnapshot(ctx, tx, snap)
	})
}

// Replace clears every table and persists snap.
func (s *Store) Replace(ctx context.Context, snap ledger.Snapshot) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := clearTables(ctx, tx); err != nil {
			return err
		}
		return writeSnapshot(ctx, tx, snap)
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	}
	return sqlTx.Commit()
}

// clearTables deletes children before parents to satisfy foreign keys.
func clearTables(ctx context.Context, tx *sql.Tx) error {
	tables := []string{"return_items", "sales_returns", "collections", "sales_items", "invoices", "journal_entries", "transactions", "accounts", "counters"}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func writeSnapshot(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot) error {
	steps := []struct {
		name string
		fn   func(context.Context, *sql.Tx, ledger.Snapshot) error
	}{
		{"accounts", writeAccounts},
		{"transactions", writeTransactions},
		{"journal entries", writeJournalEntries},
		{"invoices", writeInvoices},
		{"sales items", writeSalesItems},
		{"collections", writeCollections},
		{"returns", writeReturns},
		{"return items", writeReturnItems},
		{"counters", writeCounters},
	}
	for _, step := range steps {
		if err := step.fn(ctx, tx, snap); err != nil {
			return fmt.Errorf("failed to save %s: %w", step.name, err)
		}
	}
	return nil
}

func writeAccounts(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO accounts (code, name, account_type, normal_balance, balance)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name, balance = excluded.balance`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range snap.Accounts {
		if _, err := stmt.ExecContext(ctx, string(a.Code), a.Name, string(a.Type), string(a.NormalBalance), amount(a.Balance)); err != nil {
			return err
		}
	}
	return nil
}

func writeTransactions(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, date, reference, description, tx_type, total_amount)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range snap.Transactions {
		if _, err := stmt.ExecContext(ctx, int64(t.ID), formatTime(t.Date), t.Reference, t.Description, string(t.Type), amount(t.TotalAmount)); err != nil {
			return err
		}
	}
	return nil
}

func writeJournalEntries(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO journal_entries (id, transaction_id, account_code, account_name, debit_amount, credit_amount, date, reference, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range snap.JournalEntries {
		if _, err := stmt.ExecContext(ctx,
			int64(e.ID), int64(e.TransactionID), string(e.AccountCode), e.AccountName,
			amount(e.DebitAmount), amount(e.CreditAmount),
			formatTime(e.Date), e.Reference, e.Description,
		); err != nil {
			return err
		}
	}
	return nil
}

func writeInvoices(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO invoices (id, invoice_number, customer_name, date, payment_method, total_amount, paid_amount, outstanding_amount, status, transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			paid_amount = excluded.paid_amount,
			outstanding_amount = excluded.outstanding_amount,
			status = excluded.status`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, inv := range snap.Invoices {
		if _, err := stmt.ExecContext(ctx,
			int64(inv.ID), inv.InvoiceNumber, inv.CustomerName, formatTime(inv.Date), string(inv.PaymentMethod),
			amount(inv.TotalAmount), amount(inv.PaidAmount), amount(inv.OutstandingAmount),
			string(inv.Status), int64(inv.TransactionID),
		); err != nil {
			return err
		}
	}
	return nil
}

func writeSalesItems(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales_items (id, invoice_id, description, quantity, unit_price, cogs_unit, line_total, line_cogs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, it := range snap.SalesItems {
		if _, err := stmt.ExecContext(ctx,
			int64(it.ID), int64(it.InvoiceID), it.Description,
			it.Quantity.String(), it.UnitPrice.String(), it.CogsUnit.String(),
			amount(it.LineTotal), amount(it.LineCogs),
		); err != nil {
			return err
		}
	}
	return nil
}

func writeCollections(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO collections (id, invoice_id, date, amount, payment_method, reference, notes, transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range snap.Collections {
		if _, err := stmt.ExecContext(ctx,
			int64(c.ID), int64(c.InvoiceID), formatTime(c.Date), amount(c.Amount), c.PaymentMethod,
			nullString(c.Reference), nullString(c.Notes), int64(c.TransactionID),
		); err != nil {
			return err
		}
	}
	return nil
}

func writeReturns(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales_returns (id, return_number, invoice_id, date, total_amount, total_cogs, return_type, reason, transaction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range snap.Returns {
		if _, err := stmt.ExecContext(ctx,
			int64(r.ID), r.ReturnNumber, int64(r.InvoiceID), formatTime(r.Date),
			amount(r.TotalAmount), amount(r.TotalCogs), string(r.ReturnType),
			nullString(r.Reason), int64(r.TransactionID),
		); err != nil {
			return err
		}
	}
	return nil
}

func writeReturnItems(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO return_items (id, return_id, description, quantity, unit_price, cogs_unit, line_total, line_cogs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, it := range snap.ReturnItems {
		if _, err := stmt.ExecContext(ctx,
			int64(it.ID), int64(it.ReturnID), it.Description,
			it.Quantity.String(), it.UnitPrice.String(), it.CogsUnit.String(),
			amount(it.LineTotal), amount(it.LineCogs),
		); err != nil {
			return err
		}
	}
	return nil
}

func writeCounters(ctx context.Context, tx *sql.Tx, snap ledger.Snapshot) error {
	c := snap.Counters
	values := map[string]int64{
		"transactions":    int64(c.Transaction),
		"journal_entries": int64(c.JournalEntry),
		"invoices":        int64(c.Invoice),
		"sales_items":     int64(c.SalesItem),
		"collections":     int64(c.Collection),
		"sales_returns":   int64(c.Return),
		"return_items":    int64(c.ReturnItem),
	}
	for name, next := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO counters (name, next_id) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET next_id = MAX(next_id, excluded.next_id)`,
			name, next,
		); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the stored snapshot. found is false on a fresh database.
func (s *Store) Load(ctx context.Context) (ledger.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap ledger.Snapshot
	found, err := s.loadCounters(ctx, &snap.Counters)
	if err != nil || !found {
		return ledger.Snapshot{}, false, err
	}

	loaders := []struct {
		name string
		fn   func(context.Context, *ledger.Snapshot) error
	}{
		{"accounts", s.loadAccounts},
		{"transactions", s.loadTransactions},
		{"journal entries", s.loadJournalEntries},
		{"invoices", s.loadInvoices},
		{"sales items", s.loadSalesItems},
		{"collections", s.loadCollections},
		{"returns", s.loadReturns},
		{"return items", s.loadReturnItems},
	}
	for _, l := range loaders {
		if err := l.fn(ctx, &snap); err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("failed to load %s: %w", l.name, err)
		}
	}
	return snap, true, nil
}

func (s *Store) loadCounters(ctx context.Context, c *ledger.Counters) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, next_id FROM counters`)
	if err != nil {
		return false, fmt.Errorf("failed to load counters: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var name string
		var next int64
		if err := rows.Scan(&name, &next); err != nil {
			return false, err
		}
		found = true
		switch name {
		case "transactions":
			c.Transaction = ledger.TransactionID(next)
		case "journal_entries":
			c.JournalEntry = ledger.EntryID(next)
		case "invoices":
			c.Invoice = ledger.InvoiceID(next)
		case "sales_items":
			c.SalesItem = ledger.SalesItemID(next)
		case "collections":
			c.Collection = ledger.CollectionID(next)
		case "sales_returns":
			c.Return = ledger.ReturnID(next)
		case "return_items":
			c.ReturnItem = ledger.ReturnItemID(next)
		}
	}
	return found, rows.Err()
}

func (s *Store) loadAccounts(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, account_type, normal_balance, balance FROM accounts ORDER BY code`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a ledger.Account
		var code, accType, normal, balance string
		if err := rows.Scan(&code, &a.Name, &accType, &normal, &balance); err != nil {
			return err
		}
		var p parser
		a.Code = ledger.AccountCode(code)
		a.Type = ledger.AccountType(accType)
		a.NormalBalance = ledger.NormalBalance(normal)
		a.Balance = p.decimal(balance)
		if p.err != nil {
			return p.err
		}
		snap.Accounts = append(snap.Accounts, a)
	}
	return rows.Err()
}

func (s *Store) loadTransactions(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, date, reference, description, tx_type, total_amount FROM transactions ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t ledger.Transaction
		var id int64
		var date, txType, total string
		if err := rows.Scan(&id, &date, &t.Reference, &t.Description, &txType, &total); err != nil {
			return err
		}
		var p parser
		t.ID = ledger.TransactionID(id)
		t.Date = p.time(date)
		t.Type = ledger.TransactionType(txType)
		t.TotalAmount = p.decimal(total)
		if p.err != nil {
			return p.err
		}
		snap.Transactions = append(snap.Transactions, t)
	}
	return rows.Err()
}

func (s *Store) loadJournalEntries(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, account_code, account_name, debit_amount, credit_amount, date, reference, description
		FROM journal_entries ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e ledger.JournalEntry
		var id, txID int64
		var code, debit, credit, date string
		if err := rows.Scan(&id, &txID, &code, &e.AccountName, &debit, &credit, &date, &e.Reference, &e.Description); err != nil {
			return err
		}
		var p parser
		e.ID = ledger.EntryID(id)
		e.TransactionID = ledger.TransactionID(txID)
		e.AccountCode = ledger.AccountCode(code)
		e.DebitAmount = p.decimal(debit)
		e.CreditAmount = p.decimal(credit)
		e.Date = p.time(date)
		if p.err != nil {
			return p.err
		}
		snap.JournalEntries = append(snap.JournalEntries, e)
	}
	return rows.Err()
}

func (s *Store) loadInvoices(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, invoice_number, customer_name, date, payment_method, total_amount, paid_amount, outstanding_amount, status, transaction_id
		FROM invoices ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var inv ledger.SalesInvoice
		var id, txID int64
		var date, method, total, paid, outstanding, status string
		if err := rows.Scan(&id, &inv.InvoiceNumber, &inv.CustomerName, &date, &method, &total, &paid, &outstanding, &status, &txID); err != nil {
			return err
		}
		var p parser
		inv.ID = ledger.InvoiceID(id)
		inv.Date = p.time(date)
		inv.PaymentMethod = ledger.PaymentMethod(method)
		inv.TotalAmount = p.decimal(total)
		inv.PaidAmount = p.decimal(paid)
		inv.OutstandingAmount = p.decimal(outstanding)
		inv.Status = ledger.InvoiceStatus(status)
		inv.TransactionID = ledger.TransactionID(txID)
		if p.err != nil {
			return p.err
		}
		snap.Invoices = append(snap.Invoices, inv)
	}
	return rows.Err()
}

func (s *Store) loadSalesItems(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, cogs_unit, line_total, line_cogs
		FROM sales_items ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it ledger.SalesItem
		var id, invoiceID int64
		var qty, price, cogsUnit, total, cogs string
		if err := rows.Scan(&id, &invoiceID, &it.Description, &qty, &price, &cogsUnit, &total, &cogs); err != nil {
			return err
		}
		var p parser
		it.ID = ledger.SalesItemID(id)
		it.InvoiceID = ledger.InvoiceID(invoiceID)
		it.Quantity = p.decimal(qty)
		it.UnitPrice = p.decimal(price)
		it.CogsUnit = p.decimal(cogsUnit)
		it.LineTotal = p.decimal(total)
		it.LineCogs = p.decimal(cogs)
		if p.err != nil {
			return p.err
		}
		snap.SalesItems = append(snap.SalesItems, it)
	}
	return rows.Err()
}

func (s *Store) loadCollections(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, invoice_id, date, amount, payment_method, reference, notes, transaction_id
		FROM collections ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c ledger.Collection
		var id, invoiceID, txID int64
		var date, amt string
		var reference, notes sql.NullString
		if err := rows.Scan(&id, &invoiceID, &date, &amt, &c.PaymentMethod, &reference, &notes, &txID); err != nil {
			return err
		}
		var p parser
		c.ID = ledger.CollectionID(id)
		c.InvoiceID = ledger.InvoiceID(invoiceID)
		c.Date = p.time(date)
		c.Amount = p.decimal(amt)
		c.Reference = reference.String
		c.Notes = notes.String
		c.TransactionID = ledger.TransactionID(txID)
		if p.err != nil {
			return p.err
		}
		snap.Collections = append(snap.Collections, c)
	}
	return rows.Err()
}

func (s *Store) loadReturns(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, return_number, invoice_id, date, total_amount, total_cogs, return_type, reason, transaction_id
		FROM sales_returns ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r ledger.SalesReturn
		var id, invoiceID, txID int64
		var date, total, cogs, returnType string
		var reason sql.NullString
		if err := rows.Scan(&id, &r.ReturnNumber, &invoiceID, &date, &total, &cogs, &returnType, &reason, &txID); err != nil {
			return err
		}
		var p parser
		r.ID = ledger.ReturnID(id)
		r.InvoiceID = ledger.InvoiceID(invoiceID)
		r.Date = p.time(date)
		r.TotalAmount = p.decimal(total)
		r.TotalCogs = p.decimal(cogs)
		r.ReturnType = ledger.ReturnType(returnType)
		r.Reason = reason.String
		r.TransactionID = ledger.TransactionID(txID)
		if p.err != nil {
			return p.err
		}
		snap.Returns = append(snap.Returns, r)
	}
	return rows.Err()
}

func (s *Store) loadReturnItems(ctx context.Context, snap *ledger.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, return_id, description, quantity, unit_price, cogs_unit, line_total, line_cogs
		FROM return_items ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it ledger.ReturnItem
		var id, returnID int64
		var qty, price, cogsUnit, total, cogs string
		if err := rows.Scan(&id, &returnID, &it.Description, &qty, &price, &cogsUnit, &total, &cogs); err != nil {
			return err
		}
		var p parser
		it.ID = ledger.ReturnItemID(id)
		it.ReturnID = ledger.ReturnID(returnID)
		it.Quantity = p.decimal(qty)
		it.UnitPrice = p.decimal(price)
		it.CogsUnit = p.decimal(cogsUnit)
		it.LineTotal = p.decimal(total)
		it.LineCogs = p.decimal(cogs)
		if p.err != nil {
			return p.err
		}
		snap.ReturnItems = append(snap.ReturnItems, it)
	}
	return rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

// parser decodes TEXT columns and keeps the first error.
type parser struct {
	err error
}

func (p *parser) decimal(s string) decimal.Decimal {
	if p.err != nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		p.err = fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d
}

func (p *parser) time(s string) time.Time {
	if p.err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		p.err = fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(ledger.MoneyPlaces)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ ledger.SnapshotStore = (*Store)(nil)
