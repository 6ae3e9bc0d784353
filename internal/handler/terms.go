package handler

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"remitdesk/internal/models"
	"remitdesk/internal/terms"
)

// PreviewRequest is an amount and a set of terms to evaluate.
type PreviewRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Terms    models.Terms    `json:"terms"`
}

// PreviewTerms computes a breakdown without touching any order.
// POST /api/v1/terms/preview
func PreviewTerms(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	clientCurrency := strings.ToUpper(strings.TrimSpace(req.Terms.ClientCurrency))
	if clientCurrency == "" {
		clientCurrency = req.Currency
	}

	b, err := terms.Calculate(req.Amount, req.Terms)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	if req.Currency != "" {
		b = b.Rounded(req.Currency, clientCurrency)
	}

	JSON(w, http.StatusOK, b)
}
