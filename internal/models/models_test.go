package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	for _, st := range OrderStatuses {
		got, err := ParseOrderStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	_, err := ParseOrderStatus("paid")
	assert.Error(t, err)
}

func TestOrderStatusDeletableOnlyWhenRejected(t *testing.T) {
	for _, st := range OrderStatuses {
		assert.Equal(t, st == OrderStatusRejected, st.IsDeletable(), string(st))
	}
}

func TestOrderStatusCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		role Role
		want bool
	}{
		{"staff starts check", OrderStatusCreated, OrderStatusCheck, RoleStaff, true},
		{"staff requests payment", OrderStatusCheck, OrderStatusPendingPayment, RoleStaff, true},
		{"staff executes", OrderStatusPendingPayment, OrderStatusOnExecution, RoleStaff, true},
		{"admin releases", OrderStatusOnExecution, OrderStatusReleased, RoleAdmin, true},
		{"staff rejects under check", OrderStatusCheck, OrderStatusRejected, RoleStaff, true},
		{"staff restores cancelled", OrderStatusCancelled, OrderStatusCreated, RoleStaff, true},
		{"client cancels created", OrderStatusCreated, OrderStatusCancelled, RoleClient, true},
		{"client cancels pending payment", OrderStatusPendingPayment, OrderStatusCancelled, RoleClient, true},
		{"client cannot restore", OrderStatusCancelled, OrderStatusCreated, RoleClient, false},
		{"client cannot advance", OrderStatusCreated, OrderStatusCheck, RoleClient, false},
		{"no skipping ahead", OrderStatusCreated, OrderStatusReleased, RoleStaff, false},
		{"no cancel on execution", OrderStatusOnExecution, OrderStatusCancelled, RoleStaff, false},
		{"released is final", OrderStatusReleased, OrderStatusCreated, RoleAdmin, false},
		{"rejected is final", OrderStatusRejected, OrderStatusCheck, RoleStaff, false},
		{"unknown role", OrderStatusCreated, OrderStatusCancelled, Role("guest"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to, tt.role))
		})
	}
}

func TestOrderStatusNextStatuses(t *testing.T) {
	assert.Equal(t,
		[]OrderStatus{OrderStatusCheck, OrderStatusRejected, OrderStatusCancelled},
		OrderStatusCreated.NextStatuses(RoleStaff))
	assert.Equal(t, []OrderStatus{OrderStatusCancelled}, OrderStatusCheck.NextStatuses(RoleClient))
	assert.Empty(t, OrderStatusOnExecution.NextStatuses(RoleClient))
	assert.Empty(t, OrderStatusReleased.NextStatuses(RoleAdmin))
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderStatusReleased.IsTerminal())
	assert.True(t, OrderStatusRejected.IsTerminal())
	assert.False(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusOnExecution.IsTerminal())
}

func TestCreateOrderParamsValidate(t *testing.T) {
	valid := CreateOrderParams{
		Amount:   decimal.NewFromInt(1000),
		Currency: "USD",
		Purpose:  "Invoice 42",
		Beneficiary: Beneficiary{
			Name:          "Acme Ltd",
			AccountNumber: "123456789",
			BankName:      "Bank of Somewhere",
			BIC:           "DEUTDEFF",
			BankCountry:   "DE",
		},
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Amount = decimal.Zero
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Currency = "usd"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Beneficiary.BIC = "DEUT"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Beneficiary.AccountNumber = ""
	assert.Error(t, bad.Validate())

	bad.Beneficiary.IBAN = "DE89370400440532013000"
	assert.NoError(t, bad.Validate())
}

func TestValidBIC(t *testing.T) {
	assert.True(t, ValidBIC("DEUTDEFF"))
	assert.True(t, ValidBIC("deutdeff500"))
	assert.False(t, ValidBIC("DEUTDEF"))
	assert.False(t, ValidBIC("1EUTDEFF"))
}

func TestValidateUBOs(t *testing.T) {
	ubo := func(name string, share int64) UBO {
		return UBO{FullName: name, SharePercentage: decimal.NewFromInt(share)}
	}

	assert.NoError(t, ValidateUBOs([]UBO{ubo("A", 60), ubo("B", 40)}))
	assert.NoError(t, ValidateUBOs(nil))
	assert.Error(t, ValidateUBOs([]UBO{ubo("A", 60), ubo("B", 41)}))
	assert.Error(t, ValidateUBOs([]UBO{ubo("A", 0)}))
	assert.Error(t, ValidateUBOs([]UBO{ubo("A", 101)}))
	assert.Error(t, ValidateUBOs([]UBO{ubo(" ", 10)}))
}

func TestKYCApplicationValidateForSubmit(t *testing.T) {
	app := KYCApplication{
		CompanyName:        "PT Sinar",
		RegistrationNumber: "AHU-0001",
		Country:            "ID",
		ContactEmail:       "ops@sinar.co.id",
		UBOs: []UBO{
			{FullName: "Budi", SharePercentage: decimal.NewFromInt(100)},
		},
	}
	require.NoError(t, app.ValidateForSubmit())

	app.UBOs = nil
	assert.Error(t, app.ValidateForSubmit())

	app.CompanyName = ""
	err := app.ValidateForSubmit()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "companyName")
}

func TestKYCStatus(t *testing.T) {
	assert.True(t, KYCStatusDraft.IsEditable())
	assert.True(t, KYCStatusRejected.IsEditable())
	assert.False(t, KYCStatusSubmitted.IsEditable())
	assert.True(t, KYCStatusInReview.IsPendingDecision())
	assert.False(t, KYCStatusApproved.IsPendingDecision())
}

func TestParseKYCStatus(t *testing.T) {
	st, err := ParseKYCStatus("in_review")
	require.NoError(t, err)
	assert.Equal(t, KYCStatusInReview, st)

	_, err = ParseKYCStatus("pending")
	assert.Error(t, err)
	_, err = ParseKYCStatus("APPROVED")
	assert.Error(t, err)
}

func TestParseBadgeStatus(t *testing.T) {
	st, err := ParseBadgeStatus("approved")
	require.NoError(t, err)
	assert.Equal(t, BadgeStatusApproved, st)

	_, err = ParseBadgeStatus("done")
	assert.Error(t, err)
}
