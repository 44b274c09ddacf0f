package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INVOICE PAYMENT STATE
// =============================================================================

// DeriveStatus computes an invoice status from its outstanding amount.
func DeriveStatus(total, outstanding decimal.Decimal) InvoiceStatus {
	switch {
	case !outstanding.IsPositive():
		return InvoicePaid
	case outstanding.LessThan(total):
		return InvoicePartial
	default:
		return InvoiceOpen
	}
}

// applyPayment moves amount from outstanding to paid and recomputes status.
func (inv *SalesInvoice) applyPayment(amount decimal.Decimal) {
	inv.PaidAmount = RoundMoney(inv.PaidAmount.Add(amount))
	inv.OutstandingAmount = RoundMoney(inv.OutstandingAmount.Sub(amount))
	inv.Status = DeriveStatus(inv.TotalAmount, inv.OutstandingAmount)
}

// Consistent reports whether paid + outstanding == total and the status
// matches the outstanding amount.
func (inv SalesInvoice) Consistent() bool {
	return ApproxEqual(inv.PaidAmount.Add(inv.OutstandingAmount), inv.TotalAmount) &&
		inv.Status == DeriveStatus(inv.TotalAmount, inv.OutstandingAmount)
}

func invoiceNumber(id InvoiceID) string { return fmt.Sprintf("INV-%06d", id) }
func returnNumber(id ReturnID) string { return fmt.Sprintf("RET-%06d", id) }

func collectionReference(id CollectionID) string { return fmt.Sprintf("COL-%06d", id) }

// =============================================================================
// RECORD BOOK - Event records indexed by per-type monotonic ids
// =============================================================================

// records owns the sales invoices, collections and returns with their child
// lines. Guarded by the Engine lock.
type records struct {
	invoices    []SalesInvoice
	invoiceIdx  map[InvoiceID]int
	salesItems  []SalesItem
	collections []Collection
	returns     []SalesReturn
	returnIdx   map[ReturnID]int
	returnItems []ReturnItem

	nextInvoiceID    InvoiceID
	nextSalesItemID  SalesItemID
	nextCollectionID CollectionID
	nextReturnID     ReturnID
	nextReturnItemID ReturnItemID
}

func newRecords() *records {
	return &records{
		invoiceIdx:       make(map[InvoiceID]int),
		returnIdx:        make(map[ReturnID]int),
		nextInvoiceID:    1,
		nextSalesItemID:  1,
		nextCollectionID: 1,
		nextReturnID:     1,
		nextReturnItemID: 1,
	}
}

func (r *records) invoice(id InvoiceID) (*SalesInvoice, bool) {
	i, ok := r.invoiceIdx[id]
	if !ok {
		return nil, false
	}
	return &r.invoices[i], true
}

func (r *records) addInvoice(inv SalesInvoice, items []SalesItem) (SalesInvoice, []SalesItem) {
	inv.ID = r.nextInvoiceID
	r.nextInvoiceID++
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = invoiceNumber(inv.ID)
	}
	r.invoiceIdx[inv.ID] = len(r.invoices)
	r.invoices = append(r.invoices, inv)

	stored := make([]SalesItem, len(items))
	for i, item := range items {
		item.ID = r.nextSalesItemID
		item.InvoiceID = inv.ID
		r.nextSalesItemID++
		stored[i] = item
	}
	r.salesItems = append(r.salesItems, stored...)
	return inv, stored
}

func (r *records) addCollection(c Collection) Collection {
	c.ID = r.nextCollectionID
	r.nextCollectionID++
	if c.Reference == "" {
		c.Reference = collectionReference(c.ID)
	}
	r.collections = append(r.collections, c)
	return c
}

func (r *records) addReturn(ret SalesReturn, items []ReturnItem) (SalesReturn, []ReturnItem) {
	ret.ID = r.nextReturnID
	r.nextReturnID++
	if ret.ReturnNumber == "" {
		ret.ReturnNumber = returnNumber(ret.ID)
	}
	r.returnIdx[ret.ID] = len(r.returns)
	r.returns = append(r.returns, ret)

	stored := make([]ReturnItem, len(items))
	for i, item := range items {
		item.ID = r.nextReturnItemID
		item.ReturnID = ret.ID
		r.nextReturnItemID++
		stored[i] = item
	}
	r.returnItems = append(r.returnItems, stored...)
	return ret, stored
}

func (r *records) itemsOfInvoice(id InvoiceID) []SalesItem {
	var result []SalesItem
	for _, item := range r.salesItems {
		if item.InvoiceID == id {
			result = append(result, item)
		}
	}
	return result
}

func (r *records) itemsOfReturn(id ReturnID) []ReturnItem {
	var result []ReturnItem
	for _, item := range r.returnItems {
		if item.ReturnID == id {
			result = append(result, item)
		}
	}
	return result
}

func (r *records) listInvoices() []SalesInvoice {
	result := append([]SalesInvoice(nil), r.invoices...)
	sort.SliceStable(result, func(a, b int) bool { return result[a].Date.After(result[b].Date) })
	return result
}

func (r *records) listCollections() []Collection {
	result := append([]Collection(nil), r.collections...)
	sort.SliceStable(result, func(a, b int) bool { return result[a].Date.After(result[b].Date) })
	return result
}

func (r *records) listReturns() []SalesReturn {
	result := append([]SalesReturn(nil), r.returns...)
	sort.SliceStable(result, func(a, b int) bool { return result[a].Date.After(result[b].Date) })
	return result
}
