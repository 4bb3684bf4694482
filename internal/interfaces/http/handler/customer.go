package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apppartner "github.com/rdietscht/ACME-NextJS-Tutorial/internal/application/partner"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/partner"
)

// CustomerResponse is a customer as offered by the invoice form
type CustomerResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	ImageURL string    `json:"image_url"`
}

// CustomerHandler serves the customer selector of the invoice form
type CustomerHandler struct {
	BaseHandler
	customers *apppartner.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customers *apppartner.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// List godoc
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Success      200 {object} dto.Response{data=[]CustomerResponse}
// @Router       /dashboard/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.customers.ListCustomers(c.Request.Context())
	if err != nil {
		h.InternalError(c, "Database Error: Failed to fetch customers.")
		return
	}

	out := make([]CustomerResponse, len(customers))
	for i, cust := range customers {
		out[i] = toCustomerResponse(cust)
	}
	h.Success(c, out)
}

func toCustomerResponse(c partner.Customer) CustomerResponse {
	return CustomerResponse{ID: c.ID, Name: c.Name, Email: c.Email, ImageURL: c.ImageURL}
}
