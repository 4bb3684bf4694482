package valueobject

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	JPY Currency = "JPY" // Japanese Yen
)

// DefaultCurrency is the currency invoices are billed in
const DefaultCurrency = USD

// ErrInvalidAmount is returned when amount text is not a decimal number
var ErrInvalidAmount = errors.New("invalid amount")

// ErrAmountOutOfRange is returned when an amount has no int64 minor-unit form
var ErrAmountOutOfRange = errors.New("amount out of range")

// Parsed amounts are bounded before any arithmetic: scaling by a huge
// exponent costs time proportional to the exponent.
const (
	maxAmountLength   = 40
	maxAmountExponent = 40
)

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// Exponent returns the number of minor-unit digits of the currency
func (c Currency) Exponent() int32 {
	if c == JPY {
		return 0
	}
	return 2
}

func (c Currency) symbol() string {
	switch c {
	case USD:
		return "$"
	case EUR:
		return "€"
	case JPY:
		return "¥"
	default:
		return ""
	}
}

// Money is an immutable monetary amount in a single currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromString parses a decimal amount as typed into a form.
// Surrounding whitespace is ignored. Text that is not a decimal number, is
// longer than 40 bytes, or carries an exponent beyond ±40 yields
// ErrInvalidAmount.
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	text := strings.TrimSpace(amount)
	if len(text) > maxAmountLength {
		return Money{}, fmt.Errorf("%w: longer than %d bytes", ErrInvalidAmount, maxAmountLength)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return Money{}, fmt.Errorf("%w: exponent %d", ErrInvalidAmount, exp)
	}
	return NewMoney(d, currency)
}

// NewMoneyFromMinorUnits creates Money from an integer count of minor units
// (cents for USD)
func NewMoneyFromMinorUnits(units int64, currency Currency) Money {
	return Money{
		amount:   decimal.New(units, -currency.Exponent()),
		currency: currency,
	}
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is strictly greater than zero
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// MinorUnits converts the amount to an integer count of minor units.
// Amounts with up to the currency's exponent of fractional digits convert
// exactly; finer amounts round half away from zero ("0.005" becomes 1 cent).
// A count outside the int64 range yields ErrAmountOutOfRange.
func (m Money) MinorUnits() (int64, error) {
	units := m.amount.Shift(m.currency.Exponent()).Round(0)
	if units.Cmp(maxMinorUnits) > 0 || units.Cmp(minMinorUnits) < 0 {
		return 0, fmt.Errorf("%w: %s %s", ErrAmountOutOfRange, m.amount.String(), m.currency)
	}
	return units.IntPart(), nil
}

// Add returns the sum of both amounts
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// StringFixed returns the amount as a string with fixed decimal places
func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}

// String returns "19.99 USD"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.currency.Exponent()), m.currency)
}

// Format renders the amount for display, e.g. "$1,234.50"
func (m Money) Format() string {
	fixed := m.amount.Abs().StringFixed(m.currency.Exponent())
	intPart, frac, hasFrac := strings.Cut(fixed, ".")

	var b strings.Builder
	if m.amount.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(m.currency.symbol())
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	if m.currency.symbol() == "" {
		b.WriteByte(' ')
		b.WriteString(string(m.currency))
	}
	return b.String()
}
