package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/billing"
)

// InvoiceModel is the persistence model for invoices. Amount is stored in
// integer cents.
type InvoiceModel struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount     int64     `gorm:"not null"`
	Status     string    `gorm:"type:varchar(20);not null"`
	Date       time.Time `gorm:"type:date;not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the model to a domain invoice
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		AmountCents: m.Amount,
		Status:      billing.InvoiceStatus(m.Status),
		Date:        m.Date,
	}
}

// FromDomain populates the model from a domain invoice
func (m *InvoiceModel) FromDomain(i *billing.Invoice) {
	m.ID = i.ID
	m.CustomerID = i.CustomerID
	m.Amount = i.AmountCents
	m.Status = string(i.Status)
	m.Date = i.Date
}

// InvoiceRow is an invoice joined with its customer, as read by listings
type InvoiceRow struct {
	ID               uuid.UUID `gorm:"column:id"`
	CustomerID       uuid.UUID `gorm:"column:customer_id"`
	Amount           int64     `gorm:"column:amount"`
	Status           string    `gorm:"column:status"`
	Date             time.Time `gorm:"column:date"`
	CustomerName     string    `gorm:"column:name"`
	CustomerEmail    string    `gorm:"column:email"`
	CustomerImageURL string    `gorm:"column:image_url"`
}

// ToDomain converts the row to a domain invoice view
func (r *InvoiceRow) ToDomain() billing.InvoiceView {
	return billing.InvoiceView{
		Invoice: billing.Invoice{
			ID:          r.ID,
			CustomerID:  r.CustomerID,
			AmountCents: r.Amount,
			Status:      billing.InvoiceStatus(r.Status),
			Date:        r.Date,
		},
		CustomerName:     r.CustomerName,
		CustomerEmail:    r.CustomerEmail,
		CustomerImageURL: r.CustomerImageURL,
	}
}
