// Package billing implements the invoice mutation pipeline: form input is
// validated, normalized to integer cents, written to the invoice store and
// projected into a State the caller renders.
package billing

import (
	"bytes"
	"encoding/json"
)

// FormValue is a raw, untrusted form field. It decodes from a JSON string,
// number or null, so JSON clients may send the amount unquoted. Any other
// JSON value is kept as its literal text and fails validation later.
type FormValue string

// UnmarshalJSON implements json.Unmarshaler
func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
	default:
		*v = FormValue(data)
	}
	return nil
}

// InvoiceForm is an invoice form submission as received
type InvoiceForm struct {
	CustomerID FormValue `form:"customerId" json:"customerId"`
	Amount     FormValue `form:"amount" json:"amount"`
	Status     FormValue `form:"status" json:"status"`
}

// Operation is the mutation a form is validated for
type Operation int

const (
	OperationCreate Operation = iota
	OperationUpdate
)

func (o Operation) missingFieldsMessage() string {
	if o == OperationUpdate {
		return "Missing Fields. Failed to Update Invoice."
	}
	return "Missing Fields. Failed to Create Invoice."
}
