package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"remitdesk/internal/apiclient"
	"remitdesk/internal/models"
)

// PayerAccountHandler handles the platform bank accounts clients pay into.
type PayerAccountHandler struct {
	api    *apiclient.Client
	audit  auditor
	logger *zap.Logger
}

// NewPayerAccountHandler creates a new payer account handler. audit may be nil.
func NewPayerAccountHandler(api *apiclient.Client, audit AuditStore, logger *zap.Logger) *PayerAccountHandler {
	return &PayerAccountHandler{
		api:    api,
		audit:  auditor{store: audit, logger: logger},
		logger: logger,
	}
}

// ListActive returns the accounts a client can pay into, optionally for one currency.
// GET /api/v1/payer-accounts?currency=
func (h *PayerAccountHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.api.ListPayerAccounts(r.Context(), true)
	if err != nil {
		UpstreamError(w, h.logger, err, "payer accounts")
		return
	}

	currency := strings.ToUpper(r.URL.Query().Get("currency"))
	result := make([]models.PayerAccount, 0, len(accounts))
	for i := range accounts {
		if !accounts[i].Active {
			continue
		}
		if currency != "" && !accounts[i].SupportsCurrency(currency) {
			continue
		}
		result = append(result, accounts[i])
	}

	JSON(w, http.StatusOK, result)
}

// List returns every payer account.
// GET /api/v1/staff/payer-accounts
func (h *PayerAccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.api.ListPayerAccounts(r.Context(), false)
	if err != nil {
		UpstreamError(w, h.logger, err, "payer accounts")
		return
	}
	if accounts == nil {
		accounts = []models.PayerAccount{}
	}
	JSON(w, http.StatusOK, accounts)
}

// Get returns a payer account.
// GET /api/v1/staff/payer-accounts/{id}
func (h *PayerAccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := payerIDParam(w, r)
	if !ok {
		return
	}

	account, err := h.api.GetPayerAccount(r.Context(), id)
	if err != nil {
		UpstreamError(w, h.logger, err, "payer account")
		return
	}
	JSON(w, http.StatusOK, account)
}

// Create adds a payer account.
// POST /api/v1/staff/payer-accounts
func (h *PayerAccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.PayerAccountParams
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validatePayerAccount(&req); err != nil {
		BadRequest(w, err.Error())
		return
	}

	account, err := h.api.CreatePayerAccount(r.Context(), req)
	if err != nil {
		UpstreamError(w, h.logger, err, "payer account")
		return
	}

	h.audit.record(r, "payer_account.created", "payer_account", account.ID.String(), req)

	JSON(w, http.StatusCreated, account)
}

// Update edits a payer account.
// PUT /api/v1/staff/payer-accounts/{id}
func (h *PayerAccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := payerIDParam(w, r)
	if !ok {
		return
	}

	var req models.PayerAccountParams
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validatePayerAccount(&req); err != nil {
		BadRequest(w, err.Error())
		return
	}

	account, err := h.api.UpdatePayerAccount(r.Context(), id, req)
	if err != nil {
		UpstreamError(w, h.logger, err, "payer account")
		return
	}

	h.audit.record(r, "payer_account.updated", "payer_account", id.String(), req)

	JSON(w, http.StatusOK, account)
}

// Deactivate retires a payer account.
// DELETE /api/v1/staff/payer-accounts/{id}
func (h *PayerAccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := payerIDParam(w, r)
	if !ok {
		return
	}

	if err := h.api.DeactivatePayerAccount(r.Context(), id); err != nil {
		UpstreamError(w, h.logger, err, "payer account")
		return
	}

	h.audit.record(r, "payer_account.deactivated", "payer_account", id.String(), nil)

	w.WriteHeader(http.StatusNoContent)
}

func payerIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequest(w, "invalid payer account ID")
		return uuid.Nil, false
	}
	return id, true
}

func validatePayerAccount(p *models.PayerAccountParams) error {
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.BIC = strings.ToUpper(strings.TrimSpace(p.BIC))
	p.Country = strings.ToUpper(strings.TrimSpace(p.Country))

	if strings.TrimSpace(p.BankName) == "" {
		return fmt.Errorf("bank name is required")
	}
	if strings.TrimSpace(p.AccountHolder) == "" {
		return fmt.Errorf("account holder is required")
	}
	if p.AccountNumber == "" && p.IBAN == "" {
		return fmt.Errorf("account number or IBAN is required")
	}
	if !models.ValidBIC(p.BIC) {
		return fmt.Errorf("invalid BIC %q", p.BIC)
	}
	if !models.ValidCurrency(p.Currency) {
		return fmt.Errorf("currency must be a 3-letter ISO code")
	}
	if len(p.Country) != 2 {
		return fmt.Errorf("country must be a 2-letter ISO code")
	}
	return nil
}
