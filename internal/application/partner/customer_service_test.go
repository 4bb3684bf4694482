package partner

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/partner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockCustomerRepository is a mock implementation of partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindAll(ctx context.Context) ([]partner.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func TestCustomerService_ListCustomers(t *testing.T) {
	ctx := context.Background()

	t.Run("returns customers", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		customers := []partner.Customer{{ID: uuid.New(), Name: "Amy Burns", Email: "amy@burns.com"}}
		repo.On("FindAll", ctx).Return(customers, nil).Once()

		got, err := NewCustomerService(repo, zap.NewNop()).ListCustomers(ctx)
		require.NoError(t, err)
		assert.Equal(t, customers, got)
	})

	t.Run("none stored", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		repo.On("FindAll", ctx).Return(nil, nil).Once()

		got, err := NewCustomerService(repo, zap.NewNop()).ListCustomers(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("propagates storage failure", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		repo.On("FindAll", ctx).Return(nil, errors.New("boom")).Once()

		_, err := NewCustomerService(repo, zap.NewNop()).ListCustomers(ctx)
		assert.Error(t, err)
	})
}
