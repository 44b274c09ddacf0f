package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, InvoiceOpen, DeriveStatus(d("100"), d("100")))
	assert.Equal(t, InvoicePartial, DeriveStatus(d("100"), d("0.01")))
	assert.Equal(t, InvoicePaid, DeriveStatus(d("100"), d("0")))
	assert.Equal(t, InvoicePaid, DeriveStatus(d("100"), d("-1")))
}

func TestSalesInvoice_ApplyPayment(t *testing.T) {
	inv := SalesInvoice{TotalAmount: d("100"), PaidAmount: d("0"), OutstandingAmount: d("100"), Status: InvoiceOpen}
	require.True(t, inv.Consistent())

	inv.applyPayment(d("40"))
	assert.Equal(t, InvoicePartial, inv.Status)
	assert.True(t, inv.Consistent())

	inv.applyPayment(d("60"))
	assert.Equal(t, InvoicePaid, inv.Status)
	assert.True(t, inv.OutstandingAmount.IsZero())
	assert.True(t, inv.Consistent())
}

func TestAccountLedger_ApplyDeltas_AllOrNothing(t *testing.T) {
	l := NewAccountLedger(DefaultChart())

	err := l.ApplyDeltas([]Delta{
		{AccountCode: CodeCash, Amount: d("10")},
		{AccountCode: "0000", Amount: d("10")},
	})

	assert.ErrorIs(t, err, ErrUnknownAccount)
	assert.True(t, l.Balance(CodeCash).IsZero())

	acc, err := l.ApplyDelta(CodeCash, d("10.006"))
	require.NoError(t, err)
	assert.Equal(t, "10.01", acc.Balance.StringFixed(2))
}

func TestRecords_NumbersAndItems(t *testing.T) {
	r := newRecords()

	inv, items := r.addInvoice(SalesInvoice{}, []SalesItem{{Description: "a"}, {Description: "b"}})
	assert.Equal(t, "INV-000001", inv.InvoiceNumber)
	assert.Equal(t, SalesItemID(2), items[1].ID)
	assert.Len(t, r.itemsOfInvoice(inv.ID), 2)

	ret, _ := r.addReturn(SalesReturn{InvoiceID: inv.ID}, nil)
	assert.Equal(t, "RET-000001", ret.ReturnNumber)

	c := r.addCollection(Collection{InvoiceID: inv.ID})
	assert.Equal(t, "COL-000001", c.Reference)
}
