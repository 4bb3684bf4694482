package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/billing"
)

// InvoiceResponse is an invoice as returned by the API
type InvoiceResponse struct {
	ID              uuid.UUID `json:"id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	AmountCents     int64     `json:"amount_cents"`
	Amount          string    `json:"amount"`
	FormattedAmount string    `json:"formatted_amount"`
	Status          string    `json:"status"`
	Date            string    `json:"date"`
	CustomerName    string    `json:"name"`
	CustomerEmail   string    `json:"email"`
	ImageURL        string    `json:"image_url"`
}

// ToInvoiceResponse converts a domain invoice view
func ToInvoiceResponse(v billing.InvoiceView) InvoiceResponse {
	amount := v.Amount()
	return InvoiceResponse{
		ID:              v.ID,
		CustomerID:      v.CustomerID,
		AmountCents:     v.AmountCents,
		Amount:          amount.StringFixed(amount.Currency().Exponent()),
		FormattedAmount: amount.Format(),
		Status:          string(v.Status),
		Date:            v.Date.Format(time.DateOnly),
		CustomerName:    v.CustomerName,
		CustomerEmail:   v.CustomerEmail,
		ImageURL:        v.CustomerImageURL,
	}
}

// ToInvoiceResponses converts a page of invoice views
func ToInvoiceResponses(views []billing.InvoiceView) []InvoiceResponse {
	out := make([]InvoiceResponse, len(views))
	for i := range views {
		out[i] = ToInvoiceResponse(views[i])
	}
	return out
}

// ListInvoicesQuery holds the listing query parameters
type ListInvoicesQuery struct {
	Query    string `form:"query"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}
