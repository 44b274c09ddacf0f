/*
Package ledger provides the double-entry bookkeeping core.

PURPOSE:
  Records sales, cash collections and sales returns, and derives for each
  business event a balanced set of journal postings that update account
  balances and roll up into a balance sheet and accounting statistics.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: chart-of-accounts node with a running balance
  - Transaction / JournalEntry: one business event and its posting lines
  - SalesInvoice / Collection / SalesReturn: the event records users see
  - Typed identifiers: monotonic integer ids, one sequence per entity type

DESIGN PRINCIPLES:
  1. Precision: every amount is a decimal.Decimal, rounded to cents
  2. Immutability: journal entries are never modified, only appended
  3. Type Safety: distinct id types prevent mixing invoice/return ids
  4. Relations by id: records reference each other foreign-key style

SEE ALSO:
  - accounts.go: Account Ledger (balance mutation)
  - journal.go: append-only Journal with the balance guard
  - posting.go: Posting Rules Engine
  - engine.go: atomic event processing
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TransactionID int64
type EntryID int64
type InvoiceID int64
type SalesItemID int64
type CollectionID int64
type ReturnID int64
type ReturnItemID int64

// AccountCode is the stable, unique identifier of an account.
type AccountCode string

// =============================================================================
// ACCOUNTS
// =============================================================================

type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// NormalBalance is the side on which an account naturally increases.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "debit"
	NormalCredit NormalBalance = "credit"
)

// Account is a chart-of-accounts node. Balance is signed in the account's
// natural direction: a positive Cash balance means money on hand, a positive
// Sales Revenue balance means revenue earned.
type Account struct {
	Code          AccountCode     `json:"code"`
	Name          string          `json:"name"`
	Type          AccountType     `json:"type"`
	NormalBalance NormalBalance   `json:"normalBalance"`
	Balance       decimal.Decimal `json:"balance"`
}

// =============================================================================
// TRANSACTIONS & JOURNAL ENTRIES
// =============================================================================

type TransactionType string

const (
	TxSale       TransactionType = "sale"
	TxCollection TransactionType = "collection"
	TxReturn     TransactionType = "return"
)

// Transaction owns the journal entries posted for one business event.
type Transaction struct {
	ID          TransactionID   `json:"id"`
	Date        time.Time       `json:"date"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// JournalEntry is one posting line. AccountName is a snapshot taken at
// posting time. Entries are created with their whole transaction and never
// change afterwards.
type JournalEntry struct {
	ID            EntryID         `json:"id"`
	TransactionID TransactionID   `json:"transactionId"`
	AccountCode   AccountCode     `json:"accountCode"`
	AccountName   string          `json:"accountName"`
	DebitAmount   decimal.Decimal `json:"debitAmount"`
	CreditAmount  decimal.Decimal `json:"creditAmount"`
	Date          time.Time       `json:"date"`
	Reference     string          `json:"reference"`
	Description   string          `json:"description"`
}

// =============================================================================
// EVENT RECORDS
// =============================================================================

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
)

type InvoiceStatus string

const (
	InvoiceOpen    InvoiceStatus = "open"
	InvoicePartial InvoiceStatus = "partial"
	InvoicePaid    InvoiceStatus = "paid"
)

// SalesInvoice carries the payment state of a sale.
// INVARIANT: PaidAmount + OutstandingAmount == TotalAmount.
type SalesInvoice struct {
	ID                InvoiceID       `json:"id"`
	InvoiceNumber     string          `json:"invoiceNumber"`
	CustomerName      string          `json:"customerName"`
	Date              time.Time       `json:"date"`
	PaymentMethod     PaymentMethod   `json:"paymentMethod"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	PaidAmount        decimal.Decimal `json:"paidAmount"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
	Status            InvoiceStatus   `json:"status"`
	TransactionID     TransactionID   `json:"transactionId"`
}

// SalesItem is an immutable invoice line.
type SalesItem struct {
	ID          SalesItemID     `json:"id"`
	InvoiceID   InvoiceID       `json:"invoiceId"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	CogsUnit    decimal.Decimal `json:"cogsUnit"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	LineCogs    decimal.Decimal `json:"lineCogs"`
}

// Collection is cash received against a credit invoice. Immutable.
type Collection struct {
	ID            CollectionID    `json:"id"`
	InvoiceID     InvoiceID       `json:"invoiceId"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Reference     string          `json:"reference"`
	Notes         string          `json:"notes,omitempty"`
	TransactionID TransactionID   `json:"transactionId"`
}

type ReturnType string

const (
	ReturnGoods     ReturnType = "return"
	ReturnAllowance ReturnType = "allowance"
)

// SalesReturn reverses (part of) a sale. Immutable.
type SalesReturn struct {
	ID            ReturnID        `json:"id"`
	ReturnNumber  string          `json:"returnNumber"`
	InvoiceID     InvoiceID       `json:"invoiceId"`
	Date          time.Time       `json:"date"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TotalCogs     decimal.Decimal `json:"totalCogs"`
	ReturnType    ReturnType      `json:"returnType"`
	Reason        string          `json:"reason,omitempty"`
	TransactionID TransactionID   `json:"transactionId"`
}

// ReturnItem is an immutable return line.
type ReturnItem struct {
	ID          ReturnItemID    `json:"id"`
	ReturnID    ReturnID        `json:"returnId"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	CogsUnit    decimal.Decimal `json:"cogsUnit"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	LineCogs    decimal.Decimal `json:"lineCogs"`
}
