package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Beneficiary holds the receiving party's bank details.
type Beneficiary struct {
	Name          string `json:"name"`
	AccountNumber string `json:"accountNumber,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	BankName      string `json:"bankName"`
	BIC           string `json:"bic"`
	BankCountry   string `json:"bankCountry"`
	Address       string `json:"address,omitempty"`
}

// Order is a remittance instruction.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	Number          string          `json:"number"`
	ClientID        uuid.UUID       `json:"clientId"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Beneficiary     Beneficiary     `json:"beneficiary"`
	Purpose         string          `json:"purpose"`
	Comment         *string         `json:"comment,omitempty"`
	Status          OrderStatus     `json:"status"`
	RejectionReason *string         `json:"rejectionReason,omitempty"`
	PayerAccountID  *uuid.UUID      `json:"payerAccountId,omitempty"`
	Terms           *Terms          `json:"terms,omitempty"`
	Documents       []Document      `json:"documents,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// IsDeletable returns true if the order may be deleted.
func (o *Order) IsDeletable() bool {
	return o.Status.IsDeletable()
}

// HasTerms returns true once staff have attached terms.
func (o *Order) HasTerms() bool {
	return o.Terms != nil
}

// Terms are the staff-entered remuneration and FX fields of an order.
type Terms struct {
	RemunerationType       RemunerationType `json:"remunerationType"`
	RemunerationPercentage *decimal.Decimal `json:"remunerationPercentage,omitempty"`
	RemunerationFixed      *decimal.Decimal `json:"remunerationFixed,omitempty"`
	ExchangeRate           *decimal.Decimal `json:"exchangeRate,omitempty"`
	ClientCurrency         string           `json:"clientCurrency,omitempty"`

	// AmountToBePaidTargetCur overrides the computed total when set.
	AmountToBePaidTargetCur *decimal.Decimal `json:"amountToBePaidTargetCur,omitempty"`
}

// CreateOrderParams contains parameters for creating an order.
type CreateOrderParams struct {
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Beneficiary    Beneficiary     `json:"beneficiary"`
	Purpose        string          `json:"purpose"`
	Comment        *string         `json:"comment,omitempty"`
	PayerAccountID *uuid.UUID      `json:"payerAccountId,omitempty"`
}

// UpdateOrderParams contains parameters for editing an order.
type UpdateOrderParams struct {
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Currency       *string          `json:"currency,omitempty"`
	Beneficiary    *Beneficiary     `json:"beneficiary,omitempty"`
	Purpose        *string          `json:"purpose,omitempty"`
	Comment        *string          `json:"comment,omitempty"`
	PayerAccountID *uuid.UUID       `json:"payerAccountId,omitempty"`
}

// StatusChange is a request to move an order to another status.
type StatusChange struct {
	Status OrderStatus `json:"status"`
	Reason *string     `json:"reason,omitempty"`
}

// OrderFilter contains filter parameters for listing orders.
type OrderFilter struct {
	Status   *OrderStatus
	ClientID *uuid.UUID
	Currency *string
	Search   string
	Limit    int
	Offset   int
}

// Document is a supporting file attached to an order.
type Document struct {
	ID          uuid.UUID    `json:"id"`
	OrderID     uuid.UUID    `json:"orderId"`
	Kind        DocumentKind `json:"kind"`
	FileName    string       `json:"fileName"`
	ContentType string       `json:"contentType"`
	Size        int64        `json:"size"`
	UploadedAt  time.Time    `json:"uploadedAt"`
}

var (
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	bicPattern      = regexp.MustCompile(`^[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
)

// ValidCurrency reports whether code looks like an ISO 4217 code.
func ValidCurrency(code string) bool {
	return currencyPattern.MatchString(code)
}

// ValidBIC reports whether code is a well-formed BIC/SWIFT code.
func ValidBIC(code string) bool {
	return bicPattern.MatchString(strings.ToUpper(code))
}

// Validate checks the beneficiary bank details.
func (b Beneficiary) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("beneficiary name is required")
	}
	if b.AccountNumber == "" && b.IBAN == "" {
		return fmt.Errorf("beneficiary account number or IBAN is required")
	}
	if !ValidBIC(b.BIC) {
		return fmt.Errorf("invalid beneficiary BIC %q", b.BIC)
	}
	return nil
}

// Validate checks an order before it is sent to the platform.
func (p CreateOrderParams) Validate() error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if !ValidCurrency(p.Currency) {
		return fmt.Errorf("currency must be a 3-letter ISO code")
	}
	if strings.TrimSpace(p.Purpose) == "" {
		return fmt.Errorf("purpose is required")
	}
	return p.Beneficiary.Validate()
}

// Validate checks the fields present in an edit.
func (p UpdateOrderParams) Validate() error {
	if p.Amount != nil && !p.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if p.Currency != nil && !ValidCurrency(*p.Currency) {
		return fmt.Errorf("currency must be a 3-letter ISO code")
	}
	if p.Beneficiary != nil {
		return p.Beneficiary.Validate()
	}
	return nil
}
