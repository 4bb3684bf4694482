package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultPageSize is the number of invoices returned per listing page
const DefaultPageSize = 6

// InvoiceFilter narrows an invoice listing
type InvoiceFilter struct {
	// Query matches customer name or email, amount, date or status text
	Query    string
	Page     int
	PageSize int
}

// Offset returns the row offset of the requested page
func (f InvoiceFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the effective page size
func (f InvoiceFilter) Limit() int {
	if f.PageSize <= 0 {
		return DefaultPageSize
	}
	return f.PageSize
}

// InvoiceStore persists invoices. Update and Delete report the number of
// rows they touched; zero rows is not an error.
type InvoiceStore interface {
	Insert(ctx context.Context, record InvoiceRecord, date time.Time) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, record InvoiceRecord) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	// FindByID returns shared.ErrNotFound when no invoice has the ID
	FindByID(ctx context.Context, id uuid.UUID) (*InvoiceView, error)
	Search(ctx context.Context, filter InvoiceFilter) ([]InvoiceView, error)
	Count(ctx context.Context, query string) (int64, error)
}
