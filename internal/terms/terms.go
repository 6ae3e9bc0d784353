// Package terms computes the remuneration and FX figures shown for an order.
package terms

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"remitdesk/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Input errors.
var (
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrNegativeRate     = errors.New("exchange rate must not be negative")
	ErrPercentRange     = errors.New("remuneration percentage must be between 0 and 100")
	ErrNegativeFixedFee = errors.New("fixed remuneration must not be negative")
	ErrNegativeTotal    = errors.New("amount to be paid must not be negative")
	ErrUnknownType      = errors.New("unknown remuneration type")
)

// Breakdown is the result of applying terms to an order amount.
type Breakdown struct {
	// AmountRemuneration is the fee in the order currency.
	AmountRemuneration decimal.Decimal `json:"amountRemuneration"`
	// FaceValue is the order amount in the client currency.
	FaceValue decimal.Decimal `json:"fv"`
	// RemunerationInClientCurrency is the fee in the client currency.
	RemunerationInClientCurrency decimal.Decimal `json:"remunerationInClientCurrency"`
	// Total is what the client pays in the client currency.
	Total decimal.Decimal `json:"total"`
	// TotalOverridden is set when staff entered the total explicitly.
	TotalOverridden bool `json:"totalOverridden"`
	// RateMissing is set when no exchange rate has been entered yet.
	RateMissing bool `json:"rateMissing"`
}

// Validate checks terms independently of an order amount.
func Validate(t models.Terms) error {
	if !t.RemunerationType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, t.RemunerationType)
	}
	if p := t.RemunerationPercentage; p != nil && (p.IsNegative() || p.GreaterThan(hundred)) {
		return ErrPercentRange
	}
	if f := t.RemunerationFixed; f != nil && f.IsNegative() {
		return ErrNegativeFixedFee
	}
	if r := t.ExchangeRate; r != nil && r.IsNegative() {
		return ErrNegativeRate
	}
	if a := t.AmountToBePaidTargetCur; a != nil && a.IsNegative() {
		return ErrNegativeTotal
	}
	return nil
}

// Remuneration returns the fee in the order currency.
func Remuneration(amount decimal.Decimal, t models.Terms) decimal.Decimal {
	switch t.RemunerationType {
	case models.RemunerationPercent:
		if t.RemunerationPercentage == nil {
			return decimal.Zero
		}
		return amount.Mul(t.RemunerationPercentage.Div(hundred))
	case models.RemunerationFixed:
		if t.RemunerationFixed == nil {
			return decimal.Zero
		}
		return *t.RemunerationFixed
	default:
		return decimal.Zero
	}
}

// Calculate applies terms to amount.
func Calculate(amount decimal.Decimal, t models.Terms) (Breakdown, error) {
	if amount.IsNegative() {
		return Breakdown{}, ErrNegativeAmount
	}
	if err := Validate(t); err != nil {
		return Breakdown{}, err
	}

	rate := decimal.Zero
	if t.ExchangeRate != nil {
		rate = *t.ExchangeRate
	}

	b := Breakdown{
		AmountRemuneration: Remuneration(amount, t),
		FaceValue:          amount.Mul(rate),
		RateMissing:        t.ExchangeRate == nil || rate.IsZero(),
	}
	b.RemunerationInClientCurrency = b.AmountRemuneration.Mul(rate)

	if t.AmountToBePaidTargetCur != nil {
		b.Total = *t.AmountToBePaidTargetCur
		b.TotalOverridden = true
	} else {
		b.Total = b.RemunerationInClientCurrency.Add(b.FaceValue)
	}

	return b, nil
}

// ForOrder computes the breakdown of an order's attached terms.
// It returns false when the order has no terms yet.
func ForOrder(o *models.Order) (Breakdown, bool, error) {
	if o == nil || o.Terms == nil {
		return Breakdown{}, false, nil
	}
	b, err := Calculate(o.Amount, *o.Terms)
	if err != nil {
		return Breakdown{}, true, err
	}
	return b, true, nil
}

// Rounded returns a copy rounded for display. Order-currency figures use
// orderCurrency's minor units and client-currency figures use clientCurrency's.
func (b Breakdown) Rounded(orderCurrency, clientCurrency string) Breakdown {
	om := MinorUnits(orderCurrency)
	cm := MinorUnits(clientCurrency)
	b.AmountRemuneration = b.AmountRemuneration.Round(om)
	b.FaceValue = b.FaceValue.Round(cm)
	b.RemunerationInClientCurrency = b.RemunerationInClientCurrency.Round(cm)
	b.Total = b.Total.Round(cm)
	return b
}

// MinorUnits returns the number of decimal places used for a currency.
func MinorUnits(currency string) int32 {
	switch currency {
	case "IDR", "JPY", "KRW", "VND", "CLP", "ISK", "UGX":
		return 0
	case "BHD", "KWD", "OMR", "JOD", "TND":
		return 3
	default:
		return 2
	}
}
