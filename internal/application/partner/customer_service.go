// Package partner serves customer data to the invoice forms.
package partner

import (
	"context"

	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/partner"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CustomerService lists customers for the invoice form's selector
type CustomerService struct {
	repo   partner.CustomerRepository
	logger *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(repo partner.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{repo: repo, logger: logger}
}

// ListCustomers returns every customer ordered by name
func (s *CustomerService) ListCustomers(ctx context.Context) ([]partner.Customer, error) {
	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		logger.WithLogger(ctx, s.logger).Error("Failed to fetch customers", zap.Error(err))
		return nil, err
	}
	if customers == nil {
		customers = []partner.Customer{}
	}
	return customers, nil
}
