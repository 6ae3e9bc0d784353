package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// UBO is an ultimate beneficial owner collected during KYC.
type UBO struct {
	FullName        string          `json:"fullName"`
	Nationality     string          `json:"nationality"`
	BirthDate       string          `json:"birthDate"`
	SharePercentage decimal.Decimal `json:"sharePercentage"`
	IsPEP           bool            `json:"isPep"`
}

// KYCApplication is a client's onboarding questionnaire.
type KYCApplication struct {
	ID                 uuid.UUID  `json:"id"`
	ClientID           uuid.UUID  `json:"clientId"`
	CompanyName        string     `json:"companyName"`
	RegistrationNumber string     `json:"registrationNumber"`
	Country            string     `json:"country"`
	Address            string     `json:"address"`
	ContactName        string     `json:"contactName"`
	ContactEmail       string     `json:"contactEmail"`
	ContactPhone       string     `json:"contactPhone,omitempty"`
	Status             KYCStatus  `json:"status"`
	Comment            *string    `json:"comment,omitempty"`
	UBOs               []UBO      `json:"ubos"`
	SubmittedAt        *time.Time `json:"submittedAt,omitempty"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// KYCDecision is a staff verdict on an application.
type KYCDecision struct {
	Approve bool    `json:"approve"`
	Comment *string `json:"comment,omitempty"`
}

// ValidateUBOs checks share percentages before an application is sent.
// Each share must lie in (0, 100] and the total must not exceed 100.
func ValidateUBOs(ubos []UBO) error {
	total := decimal.Zero
	for i, u := range ubos {
		if strings.TrimSpace(u.FullName) == "" {
			return fmt.Errorf("ubo %d: full name is required", i+1)
		}
		if !u.SharePercentage.IsPositive() || u.SharePercentage.GreaterThan(hundred) {
			return fmt.Errorf("ubo %d: share must be between 0 and 100", i+1)
		}
		total = total.Add(u.SharePercentage)
	}
	if total.GreaterThan(hundred) {
		return fmt.Errorf("ubo shares total %s%%, exceeds 100%%", total.String())
	}
	return nil
}

// ValidateForSubmit checks that an application is complete enough to submit.
func (a *KYCApplication) ValidateForSubmit() error {
	var missing []string
	if strings.TrimSpace(a.CompanyName) == "" {
		missing = append(missing, "companyName")
	}
	if strings.TrimSpace(a.RegistrationNumber) == "" {
		missing = append(missing, "registrationNumber")
	}
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	if strings.TrimSpace(a.ContactEmail) == "" {
		missing = append(missing, "contactEmail")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if len(a.UBOs) == 0 {
		return errors.New("at least one UBO is required")
	}
	return ValidateUBOs(a.UBOs)
}
