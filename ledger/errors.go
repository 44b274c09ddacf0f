/*
errors.go - Centralized error types for the bookkeeping core

ERROR CATEGORIES:
  1. Client errors - ValidationError, NotFoundError, ExceedsOutstandingError.
     The caller's input is rejected and nothing is mutated.
  2. Internal errors - UnbalancedEntryError, UnknownAccountError.
     A posting rule or the chart of accounts is broken. These are defects:
     they are logged loudly and the whole event is aborted.

USAGE:
  Every structured error unwraps to a sentinel so callers can branch with
  errors.Is and still pull details out with errors.As:

    var exceeds *ledger.ExceedsOutstandingError
    if errors.As(err, &exceeds) {
        fmt.Println("outstanding is", exceeds.Outstanding)
    }

SEE ALSO:
  - engine.go: where these errors abort an event
  - api/handlers.go: HTTP status mapping
*/
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExceedsOutstanding is returned when a collection is larger than
	// what is still owed on the invoice.
	ErrExceedsOutstanding = errors.New("amount exceeds outstanding balance")

	// ErrUnbalancedEntry is returned when a posting set's debits and credits
	// differ. Always a bug in a posting rule.
	ErrUnbalancedEntry = errors.New("unbalanced journal entry")

	// ErrUnknownAccount is returned when a posting references an account
	// that is not in the chart.
	ErrUnknownAccount = errors.New("unknown account")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string // "invoice", "return", "transaction"
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ExceedsOutstandingError provides details about an over-collection.
type ExceedsOutstandingError struct {
	InvoiceID   InvoiceID
	Outstanding decimal.Decimal
	Requested   decimal.Decimal
}

func (e *ExceedsOutstandingError) Error() string {
	return fmt.Sprintf("collection of %s exceeds outstanding %s on invoice %d",
		e.Requested.StringFixed(MoneyPlaces), e.Outstanding.StringFixed(MoneyPlaces), e.InvoiceID)
}

func (e *ExceedsOutstandingError) Unwrap() error {
	return ErrExceedsOutstanding
}

// UnbalancedEntryError reports the totals of a rejected posting set.
type UnbalancedEntryError struct {
	TransactionID TransactionID
	Debits        decimal.Decimal
	Credits       decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("unbalanced journal entry for transaction %d: debits %s, credits %s",
		e.TransactionID, e.Debits.StringFixed(MoneyPlaces), e.Credits.StringFixed(MoneyPlaces))
}

func (e *UnbalancedEntryError) Unwrap() error {
	return ErrUnbalancedEntry
}

// UnknownAccountError names the account code that is missing from the chart.
type UnknownAccountError struct {
	Code AccountCode
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account %q", e.Code)
}

func (e *UnknownAccountError) Unwrap() error {
	return ErrUnknownAccount
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExceedsOutstanding)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInternal returns true for invariant violations that indicate a defect.
func IsInternal(err error) bool {
	return errors.Is(err, ErrUnbalancedEntry) || errors.Is(err, ErrUnknownAccount)
}
