package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatus_IsValid(t *testing.T) {
	assert.True(t, InvoiceStatusPending.IsValid())
	assert.True(t, InvoiceStatusPaid.IsValid())
	assert.False(t, InvoiceStatus("overdue").IsValid())
	assert.False(t, InvoiceStatus("").IsValid())
	assert.False(t, InvoiceStatus("Paid").IsValid())
}

func TestInvoice_Amount(t *testing.T) {
	inv := Invoice{AmountCents: 1999}
	assert.Equal(t, "19.99", inv.Amount().StringFixed(2))
	assert.Equal(t, "$19.99", inv.Amount().Format())
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2024, 3, 15, 8, 30, 0, 0, loc)

	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), Today(now))
}

func TestInvoiceFilter_Paging(t *testing.T) {
	assert.Equal(t, 0, InvoiceFilter{}.Offset())
	assert.Equal(t, DefaultPageSize, InvoiceFilter{}.Limit())
	assert.Equal(t, 12, InvoiceFilter{Page: 3}.Offset())
	assert.Equal(t, 20, InvoiceFilter{Page: 3, PageSize: 10}.Offset())
}
