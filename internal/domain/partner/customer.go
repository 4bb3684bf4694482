// Package partner holds the customers invoices are billed to.
package partner

import (
	"context"

	"github.com/google/uuid"
)

// Customer is read-only in the dashboard. It populates the invoice form's
// customer selector and the invoice listing.
type Customer struct {
	ID       uuid.UUID
	Name     string
	Email    string
	ImageURL string
}

// CustomerRepository reads customers
type CustomerRepository interface {
	// FindAll returns every customer ordered by name
	FindAll(ctx context.Context) ([]Customer, error)
}
