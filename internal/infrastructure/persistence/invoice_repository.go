package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/billing"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/shared"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const invoiceViewColumns = "invoices.id, invoices.customer_id, invoices.amount, invoices.status, invoices.date, " +
	"customers.name, customers.email, customers.image_url"

// GormInvoiceRepository implements billing.InvoiceStore using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Insert stores a new invoice under a freshly generated ID
func (r *GormInvoiceRepository) Insert(ctx context.Context, record billing.InvoiceRecord, date time.Time) (uuid.UUID, error) {
	model := &models.InvoiceModel{}
	model.FromDomain(&billing.Invoice{
		ID:          uuid.New(),
		CustomerID:  record.CustomerID,
		AmountCents: record.AmountCents,
		Status:      record.Status,
		Date:        date,
	})

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return uuid.Nil, err
	}
	return model.ID, nil
}

// Update overwrites customer, amount and status of the invoice. The date
// column is never written.
func (r *GormInvoiceRepository) Update(ctx context.Context, id uuid.UUID, record billing.InvoiceRecord) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"customer_id": record.CustomerID,
			"amount":      record.AmountCents,
			"status":      string(record.Status),
		})
	return result.RowsAffected, result.Error
}

// Delete removes the invoice
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.InvoiceModel{})
	return result.RowsAffected, result.Error
}

// FindByID loads one invoice with its customer
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.InvoiceView, error) {
	var row models.InvoiceRow
	err := r.joined(ctx).
		Where("invoices.id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	view := row.ToDomain()
	return &view, nil
}

// Search lists invoices newest first, filtered by a case-insensitive match
// on customer name or email, amount, date or status
func (r *GormInvoiceRepository) Search(ctx context.Context, filter billing.InvoiceFilter) ([]billing.InvoiceView, error) {
	var rows []models.InvoiceRow
	err := r.applyQuery(r.joined(ctx), filter.Query).
		Order("invoices.date DESC").
		Order("invoices.id").
		Limit(filter.Limit()).
		Offset(filter.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	invoices := make([]billing.InvoiceView, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices, nil
}

// Count returns the number of invoices matching query
func (r *GormInvoiceRepository) Count(ctx context.Context, query string) (int64, error) {
	var total int64
	err := r.applyQuery(
		r.db.WithContext(ctx).
			Table("invoices").
			Joins("JOIN customers ON customers.id = invoices.customer_id"),
		query,
	).Count(&total).Error
	return total, err
}

func (r *GormInvoiceRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("invoices").
		Select(invoiceViewColumns).
		Joins("JOIN customers ON customers.id = invoices.customer_id")
}

// applyQuery uses LOWER/LIKE and CAST so the filter runs unchanged on
// postgres and sqlite
func (r *GormInvoiceRepository) applyQuery(db *gorm.DB, query string) *gorm.DB {
	query = strings.TrimSpace(query)
	if query == "" {
		return db
	}
	pattern := "%" + strings.ToLower(escapeLike(query)) + "%"
	return db.Where(
		"LOWER(customers.name) LIKE ? ESCAPE '\\' OR LOWER(customers.email) LIKE ? ESCAPE '\\' OR "+
			"CAST(invoices.amount AS TEXT) LIKE ? ESCAPE '\\' OR CAST(invoices.date AS TEXT) LIKE ? ESCAPE '\\' OR "+
			"LOWER(invoices.status) LIKE ? ESCAPE '\\'",
		pattern, pattern, pattern, pattern, pattern,
	)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
