/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Ledger types already
  carry camelCase json tags and are returned as-is; DTOs here cover request
  bodies (string dates, optional fields) and composite responses.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response types returned to clients

AMOUNTS:
  Amounts are decimals and serialize as strings ("120.50"). Requests accept
  either JSON strings or numbers.

DATES:
  Request dates are "2006-01-02" or RFC 3339. An empty date means today
  (UTC).

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/bookkeeping-engine/ledger"
)

// =============================================================================
// REQUESTS
// =============================================================================

// ItemRequest is one sold or returned line.
type ItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	CogsUnit    decimal.Decimal `json:"cogsUnit"`
}

// CreateSaleRequest is the body of POST /api/sales.
type CreateSaleRequest struct {
	CustomerName  string        `json:"customerName"`
	Date          string        `json:"date"`
	PaymentMethod string        `json:"paymentMethod"`
	Items         []ItemRequest `json:"items"`
}

// CreateCollectionRequest is the body of POST /api/collections.
type CreateCollectionRequest struct {
	InvoiceID     int64           `json:"invoiceId"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// CreateReturnRequest is the body of POST /api/returns.
type CreateReturnRequest struct {
	InvoiceID  int64         `json:"invoiceId"`
	Date       string        `json:"date"`
	ReturnType string        `json:"returnType"`
	Reason     string        `json:"reason,omitempty"`
	Items      []ItemRequest `json:"items"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// InvoiceDTO is an invoice with its lines.
type InvoiceDTO struct {
	ledger.SalesInvoice
	Items []ledger.SalesItem `json:"items"`
}

// ReturnDTO is a sales return with its lines.
type ReturnDTO struct {
	ledger.SalesReturn
	Items []ledger.ReturnItem `json:"items"`
}

// TransactionDTO is a transaction with its journal lines.
type TransactionDTO struct {
	ledger.Transaction
	Entries []ledger.JournalEntry `json:"entries"`
}

// BalanceSheetDTO adds the accounting-equation check to the balance sheet.
type BalanceSheetDTO struct {
	ledger.BalanceSheet
	Balanced bool `json:"balanced"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProblemDetail is an RFC 7807 error body.
type ProblemDetail struct {
	Type   string              `json:"type,omitempty"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors []ledger.FieldError `json:"errors,omitempty"`
}

// HealthDTO is returned by GET /api/health.
type HealthDTO struct {
	Status       string `json:"status"`
	Transactions int    `json:"transactions"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func (r CreateSaleRequest) toInput(now time.Time) (ledger.SaleInput, error) {
	date, err := parseDate(r.Date, now)
	if err != nil {
		return ledger.SaleInput{}, err
	}
	return ledger.SaleInput{
		CustomerName:  strings.TrimSpace(r.CustomerName),
		Date:          date,
		PaymentMethod: ledger.PaymentMethod(strings.ToLower(r.PaymentMethod)),
		Items:         toItemInputs(r.Items),
	}, nil
}

func (r CreateCollectionRequest) toInput(now time.Time) (ledger.CollectionInput, error) {
	date, err := parseDate(r.Date, now)
	if err != nil {
		return ledger.CollectionInput{}, err
	}
	return ledger.CollectionInput{
		InvoiceID:     ledger.InvoiceID(r.InvoiceID),
		Date:          date,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Reference:     strings.TrimSpace(r.Reference),
		Notes:         r.Notes,
	}, nil
}

func (r CreateReturnRequest) toInput(now time.Time) (ledger.ReturnInput, error) {
	date, err := parseDate(r.Date, now)
	if err != nil {
		return ledger.ReturnInput{}, err
	}
	return ledger.ReturnInput{
		InvoiceID:  ledger.InvoiceID(r.InvoiceID),
		Date:       date,
		ReturnType: ledger.ReturnType(strings.ToLower(r.ReturnType)),
		Reason:     r.Reason,
		Items:      toItemInputs(r.Items),
	}, nil
}

func toItemInputs(items []ItemRequest) []ledger.ItemInput {
	if items == nil {
		return nil
	}
	out := make([]ledger.ItemInput, len(items))
	for i, it := range items {
		out[i] = ledger.ItemInput{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			CogsUnit:    it.CogsUnit,
		}
	}
	return out
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Empty means
// the current UTC day.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, &ledger.ValidationError{Fields: []ledger.FieldError{
		{Field: "date", Message: "must be YYYY-MM-DD or RFC 3339"},
	}}
}
