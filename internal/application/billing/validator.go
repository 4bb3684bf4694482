package billing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/billing"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/shared/valueobject"
)

// Form field names, as submitted and as keyed in FieldErrors
const (
	FieldCustomerID = "customerId"
	FieldAmount     = "amount"
	FieldStatus     = "status"
)

var fieldMessages = map[string]string{
	FieldCustomerID: "Please select a customer.",
	FieldAmount:     "Please enter an amount greater than $0.",
	FieldStatus:     "Please select an invoice status.",
}

// FieldErrors maps a form field to its validation messages
type FieldErrors map[string][]string

// Add records msg for field once
func (fe FieldErrors) Add(field, msg string) {
	for _, existing := range fe[field] {
		if existing == msg {
			return
		}
	}
	fe[field] = append(fe[field], msg)
}

const tagPositiveAmount = "positive_amount"

type invoiceFields struct {
	CustomerID string `json:"customerId" validate:"required,uuid"`
	Amount     string `json:"amount" validate:"required,positive_amount"`
	Status     string `json:"status" validate:"required,oneof=pending paid"`
}

// Validator checks invoice forms and normalizes them into records
type Validator struct {
	validate *validator.Validate
	currency valueobject.Currency
}

// NewValidator creates a validator for amounts in the default currency
func NewValidator() *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		currency: valueobject.DefaultCurrency,
	}
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	// The amount must be positive once rounded to whole cents and fit the
	// stored int64 cent count.
	mustRegister(v.validate, tagPositiveAmount, v.positiveAmount)
	return v
}

// mustRegister panics when a custom rule cannot be installed; tags are
// compile-time constants, so a failure is a programming error.
func mustRegister(validate *validator.Validate, tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func (v *Validator) positiveAmount(fl validator.FieldLevel) bool {
	_, ok := v.amountCents(fl.Field().String())
	return ok
}

// amountCents normalizes amount text to a positive cent count.
func (v *Validator) amountCents(text string) (int64, bool) {
	m, err := valueobject.NewMoneyFromString(text, v.currency)
	if err != nil {
		return 0, false
	}
	cents, err := m.MinorUnits()
	if err != nil || cents <= 0 {
		return 0, false
	}
	return cents, true
}

// Validate checks every field independently. On success it returns the
// normalized record and nil errors; otherwise every failing field is
// reported with its fixed message.
func (v *Validator) Validate(form InvoiceForm) (billing.InvoiceRecord, FieldErrors) {
	fields := invoiceFields{
		CustomerID: strings.ToLower(strings.TrimSpace(string(form.CustomerID))),
		Amount:     strings.TrimSpace(string(form.Amount)),
		Status:     string(form.Status),
	}

	if err := v.validate.Struct(fields); err != nil {
		errs := FieldErrors{}
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			// InvalidValidationError only happens on programmer error
			for field, msg := range fieldMessages {
				errs.Add(field, msg)
			}
			return billing.InvoiceRecord{}, errs
		}
		for _, fe := range validationErrors {
			errs.Add(fe.Field(), fieldMessages[fe.Field()])
		}
		return billing.InvoiceRecord{}, errs
	}

	customerID, err := uuid.Parse(fields.CustomerID)
	if err != nil {
		return billing.InvoiceRecord{}, FieldErrors{FieldCustomerID: {fieldMessages[FieldCustomerID]}}
	}
	cents, ok := v.amountCents(fields.Amount)
	if !ok {
		return billing.InvoiceRecord{}, FieldErrors{FieldAmount: {fieldMessages[FieldAmount]}}
	}

	return billing.InvoiceRecord{
		CustomerID:  customerID,
		AmountCents: cents,
		Status:      billing.InvoiceStatus(fields.Status),
	}, nil
}
