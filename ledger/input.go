package ledger

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// =============================================================================
// EVENT INPUTS
// =============================================================================

// ItemInput is one sold or returned line.
type ItemInput struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice" validate:"gt=0"`
	CogsUnit    decimal.Decimal `json:"cogsUnit" validate:"gt=0"`
}

// SaleInput is the payload of SubmitSale.
type SaleInput struct {
	CustomerName  string        `json:"customerName" validate:"required"`
	Date          time.Time     `json:"date" validate:"required"`
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=cash credit"`
	Items         []ItemInput   `json:"items" validate:"required,min=1,dive"`
}

// CollectionInput is the payload of SubmitCollection.
type CollectionInput struct {
	InvoiceID     InvoiceID       `json:"invoiceId" validate:"gt=0"`
	Date          time.Time       `json:"date" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentMethod string          `json:"paymentMethod" validate:"required"`
	Reference     string          `json:"reference"`
	Notes         string          `json:"notes"`
}

// ReturnInput is the payload of SubmitReturn.
type ReturnInput struct {
	InvoiceID  InvoiceID   `json:"invoiceId" validate:"gt=0"`
	Date       time.Time   `json:"date" validate:"required"`
	ReturnType ReturnType  `json:"returnType" validate:"required,oneof=return allowance"`
	Reason     string      `json:"reason"`
	Items      []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// =============================================================================
// VALIDATION
// =============================================================================

// newValidator builds a validator that reports json field names and
// understands decimal.Decimal numeric tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// validateInput runs the struct tags and converts failures to a
// ValidationError listing every offending field.
func validateInput(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return newValidationError("input", err.Error())
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: describeTag(fe),
		})
	}
	return verr
}

// fieldPath drops the leading struct name: "SaleInput.items[0].quantity"
// becomes "items[0].quantity".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// =============================================================================
// LINE AGGREGATION
// =============================================================================

// lineAmounts is the priced form of one ItemInput.
type lineAmounts struct {
	Input     ItemInput
	LineTotal decimal.Decimal
	LineCogs  decimal.Decimal
}

// aggregateItems prices every line and sums them:
// amount = sum(qty x unitPrice), cogs = sum(qty x cogsUnit), each rounded
// to cents.
func aggregateItems(items []ItemInput) (lines []lineAmounts, amount, cogs decimal.Decimal) {
	amount, cogs = decimal.Zero, decimal.Zero
	lines = make([]lineAmounts, len(items))
	for i, item := range items {
		total := RoundMoney(item.Quantity.Mul(item.UnitPrice))
		lineCogs := RoundMoney(item.Quantity.Mul(item.CogsUnit))
		lines[i] = lineAmounts{Input: item, LineTotal: total, LineCogs: lineCogs}
		amount = amount.Add(total)
		cogs = cogs.Add(lineCogs)
	}
	return lines, amount, cogs
}
