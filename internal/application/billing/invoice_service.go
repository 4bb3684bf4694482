package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/billing"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/shared"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// InvoiceList is one page of the invoice listing
type InvoiceList struct {
	Invoices   []billing.InvoiceView `json:"invoices"`
	TotalPages int                   `json:"total_pages"`
}

// InvoiceService executes invoice mutations and serves the listing
type InvoiceService struct {
	store     billing.InvoiceStore
	validator *Validator
	views     shared.ViewCache
	now       func() time.Time
	logger    *zap.Logger
}

// InvoiceServiceOption configures an InvoiceService
type InvoiceServiceOption func(*InvoiceService)

// WithClock overrides the clock used to date new invoices
func WithClock(now func() time.Time) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.now = now
	}
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	store billing.InvoiceStore,
	views shared.ViewCache,
	logger *zap.Logger,
	opts ...InvoiceServiceOption,
) *InvoiceService {
	s := &InvoiceService{
		store:     store,
		validator: NewValidator(),
		views:     views,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInvoice validates the form and stores a new pending or paid invoice
// dated today. Storage failures are logged and reported with a fixed message.
func (s *InvoiceService) CreateInvoice(ctx context.Context, form InvoiceForm) State {
	record, errs := s.validator.Validate(form)
	if errs != nil {
		return FieldErrorState(errs, OperationCreate)
	}

	id, err := s.store.Insert(ctx, record, billing.Today(s.now()))
	if err != nil {
		s.log(ctx).Error("Failed to create invoice",
			zap.String("customer_id", record.CustomerID.String()),
			zap.Error(err),
		)
		return MessageState(CodeCreateFailed, MessageCreateFailed)
	}

	s.log(ctx).Info("Invoice created",
		zap.String("invoice_id", id.String()),
		zap.Int64("amount_cents", record.AmountCents),
	)
	s.views.Invalidate(ctx, shared.ViewInvoices)
	return SuccessState(InvoicesPath)
}

// UpdateInvoice validates the form and overwrites customer, amount and
// status of the invoice. The date is kept. An ID matching no invoice is
// applied as a no-op.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id string, form InvoiceForm) State {
	record, errs := s.validator.Validate(form)
	if errs != nil {
		return FieldErrorState(errs, OperationUpdate)
	}

	invoiceID, err := uuid.Parse(id)
	if err != nil {
		s.log(ctx).Error("Failed to update invoice", zap.String("invoice_id", id), zap.Error(err))
		return MessageState(CodeUpdateFailed, MessageUpdateFailed)
	}

	rows, err := s.store.Update(ctx, invoiceID, record)
	if err != nil {
		s.log(ctx).Error("Failed to update invoice", zap.String("invoice_id", id), zap.Error(err))
		return MessageState(CodeUpdateFailed, MessageUpdateFailed)
	}
	if rows == 0 {
		s.log(ctx).Warn("Update matched no invoice", zap.String("invoice_id", id))
	}

	s.views.Invalidate(ctx, shared.ViewInvoices)
	return SuccessState(InvoicesPath)
}

// DeleteInvoice removes the invoice. Deleting an absent invoice succeeds.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id string) State {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		s.log(ctx).Error("Failed to delete invoice", zap.String("invoice_id", id), zap.Error(err))
		return MessageState(CodeDeleteFailed, MessageDeleteFailed)
	}

	rows, err := s.store.Delete(ctx, invoiceID)
	if err != nil {
		s.log(ctx).Error("Failed to delete invoice", zap.String("invoice_id", id), zap.Error(err))
		return MessageState(CodeDeleteFailed, MessageDeleteFailed)
	}
	if rows == 0 {
		s.log(ctx).Warn("Delete matched no invoice", zap.String("invoice_id", id))
	}

	s.views.Invalidate(ctx, shared.ViewInvoices)
	return State{Message: MessageDeleted}
}

// GetInvoice loads an invoice for the edit form. Malformed and unknown IDs
// both return shared.ErrNotFound.
func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*billing.InvoiceView, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	invoice, err := s.store.FindByID(ctx, invoiceID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.log(ctx).Error("Failed to fetch invoice", zap.String("invoice_id", id), zap.Error(err))
		}
		return nil, err
	}
	return invoice, nil
}

// ListInvoices returns one page of invoices matching query. Pages are served
// from the view cache until the next invoice mutation invalidates it.
func (s *InvoiceService) ListInvoices(ctx context.Context, filter billing.InvoiceFilter) (*InvoiceList, error) {
	key := fmt.Sprintf("query=%s&page=%d&size=%d", filter.Query, max(filter.Page, 1), filter.Limit())

	if data, ok := s.views.Get(ctx, shared.ViewInvoices, key); ok {
		var cached InvoiceList
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
		s.log(ctx).Warn("Discarding unreadable cached invoice page", zap.String("key", key))
	}

	invoices, err := s.store.Search(ctx, filter)
	if err != nil {
		s.log(ctx).Error("Failed to list invoices", zap.String("query", filter.Query), zap.Error(err))
		return nil, err
	}
	total, err := s.store.Count(ctx, filter.Query)
	if err != nil {
		s.log(ctx).Error("Failed to count invoices", zap.String("query", filter.Query), zap.Error(err))
		return nil, err
	}

	list := &InvoiceList{
		Invoices:   invoices,
		TotalPages: int((total + int64(filter.Limit()) - 1) / int64(filter.Limit())),
	}
	if list.Invoices == nil {
		list.Invoices = []billing.InvoiceView{}
	}

	if data, err := json.Marshal(list); err == nil {
		s.views.Set(ctx, shared.ViewInvoices, key, data)
	}
	return list, nil
}

func (s *InvoiceService) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}
