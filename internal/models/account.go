package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User is the person signed in to the console.
type User struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Role     Role       `json:"role"`
	ClientID *uuid.UUID `json:"clientId,omitempty"`
}

// IsStaff returns true if the user can use staff tools.
func (u *User) IsStaff() bool {
	return u.Role.IsStaff()
}

// PayerAccount is a platform bank account a client pays an order into.
type PayerAccount struct {
	ID            uuid.UUID `json:"id"`
	BankName      string    `json:"bankName"`
	AccountHolder string    `json:"accountHolder"`
	AccountNumber string    `json:"accountNumber,omitempty"`
	IBAN          string    `json:"iban,omitempty"`
	BIC           string    `json:"bic"`
	Currency      string    `json:"currency"`
	Country       string    `json:"country"`
	Active        bool      `json:"active"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SupportsCurrency checks if the account can receive the currency.
func (p *PayerAccount) SupportsCurrency(currency string) bool {
	return p.Currency == currency
}

// PayerAccountParams contains the editable fields of a payer account.
type PayerAccountParams struct {
	BankName      string `json:"bankName"`
	AccountHolder string `json:"accountHolder"`
	AccountNumber string `json:"accountNumber,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	BIC           string `json:"bic"`
	Currency      string `json:"currency"`
	Country       string `json:"country"`
	Active        *bool  `json:"active,omitempty"`
}

// Badge is a tracked document or agreement requirement, such as a service agreement.
type Badge struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// ClientBadge is a client's progress on a badge.
type ClientBadge struct {
	ID        string      `json:"id"`
	ClientID  uuid.UUID   `json:"clientId"`
	BadgeID   string      `json:"badgeId"`
	Status    BadgeStatus `json:"status"`
	Comment   *string     `json:"comment,omitempty"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// BadgeView joins a badge definition with a client's status.
type BadgeView struct {
	Badge
	Status    BadgeStatus `json:"status"`
	Comment   *string     `json:"comment,omitempty"`
	UpdatedAt *time.Time  `json:"updatedAt,omitempty"`
}

// Currency is reference data served by the platform API.
type Currency struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	MinorUnits int    `json:"minorUnits"`
}

// BankInfo is the result of a BIC lookup.
type BankInfo struct {
	BIC      string `json:"bic"`
	BankName string `json:"bankName"`
	Country  string `json:"country"`
	City     string `json:"city,omitempty"`
	Address  string `json:"address,omitempty"`
}

// AuditEntry is one staff action recorded by the console.
type AuditEntry struct {
	ID          uuid.UUID       `json:"id"`
	ActorID     uuid.UUID       `json:"actorId"`
	ActorEmail  string          `json:"actorEmail"`
	Action      string          `json:"action"`
	SubjectType string          `json:"subjectType"`
	SubjectID   string          `json:"subjectId"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	RequestID   string          `json:"requestId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// AuditFilter contains filter parameters for listing audit entries.
type AuditFilter struct {
	SubjectType string
	SubjectID   string
	ActorID     *uuid.UUID
	Limit       int
	Offset      int
}
