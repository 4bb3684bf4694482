// Package billing holds the invoice model of the dashboard.
package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/shared/valueobject"
)

// InvoiceStatus is the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// IsValid reports whether s is one of the known statuses
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaid
}

// Invoice is a stored invoice. ID and Date are assigned at creation and
// never change afterwards.
type Invoice struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	AmountCents int64
	Status      InvoiceStatus
	Date        time.Time
}

// Amount returns the invoice amount as Money
func (i Invoice) Amount() valueobject.Money {
	return valueobject.NewMoneyFromMinorUnits(i.AmountCents, valueobject.DefaultCurrency)
}

// InvoiceRecord is a validated, normalized invoice payload ready for storage
type InvoiceRecord struct {
	CustomerID  uuid.UUID
	AmountCents int64
	Status      InvoiceStatus
}

// InvoiceView is an invoice joined with the customer it bills
type InvoiceView struct {
	Invoice
	CustomerName     string
	CustomerEmail    string
	CustomerImageURL string
}

// Today returns the calendar date of now in UTC, used as the creation
// date of new invoices
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
