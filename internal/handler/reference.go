package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"remitdesk/internal/apiclient"
	"remitdesk/internal/models"
)

const (
	currenciesTTL = time.Hour
	bicTTL        = 24 * time.Hour
)

// JSONCache stores reference data between requests.
type JSONCache interface {
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, v any) (bool, error)
}

// ReferenceHandler serves platform reference data through a read-through cache.
type ReferenceHandler struct {
	api    *apiclient.Client
	cache  JSONCache
	logger *zap.Logger
}

// NewReferenceHandler creates a new reference handler. cache may be nil.
func NewReferenceHandler(api *apiclient.Client, cache JSONCache, logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{api: api, cache: cache, logger: logger}
}

// Currencies returns the supported currencies.
// GET /api/v1/reference/currencies
func (h *ReferenceHandler) Currencies(w http.ResponseWriter, r *http.Request) {
	const key = "ref:currencies"

	var currencies []models.Currency
	if h.cached(r.Context(), key, &currencies) {
		JSON(w, http.StatusOK, currencies)
		return
	}

	currencies, err := h.api.ListCurrencies(r.Context())
	if err != nil {
		UpstreamError(w, h.logger, err, "currencies")
		return
	}
	h.store(r.Context(), key, currencies, currenciesTTL)

	JSON(w, http.StatusOK, currencies)
}

// BIC resolves a BIC/SWIFT code to bank details.
// GET /api/v1/reference/bic/{bic}
func (h *ReferenceHandler) BIC(w http.ResponseWriter, r *http.Request) {
	bic := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "bic")))
	if !models.ValidBIC(bic) {
		BadRequest(w, "invalid BIC")
		return
	}
	key := "ref:bic:" + bic

	var info models.BankInfo
	if h.cached(r.Context(), key, &info) {
		JSON(w, http.StatusOK, info)
		return
	}

	found, err := h.api.LookupBIC(r.Context(), bic)
	if err != nil {
		UpstreamError(w, h.logger, err, "bank")
		return
	}
	h.store(r.Context(), key, found, bicTTL)

	JSON(w, http.StatusOK, found)
}

func (h *ReferenceHandler) cached(ctx context.Context, key string, v any) bool {
	if h.cache == nil {
		return false
	}
	ok, err := h.cache.GetJSON(ctx, key, v)
	if err != nil {
		h.logger.Warn("reference cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (h *ReferenceHandler) store(ctx context.Context, key string, v any, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetJSON(ctx, key, v, ttl); err != nil {
		h.logger.Warn("reference cache write failed", zap.String("key", key), zap.Error(err))
	}
}
