package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"remitdesk/internal/apiclient"
	"remitdesk/internal/auth"
	"remitdesk/internal/cache"
	"remitdesk/internal/config"
	"remitdesk/internal/metrics"
	"remitdesk/internal/models"
	"remitdesk/internal/terms"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers the result of create calls by client-chosen key.
type IdempotencyStore interface {
	SetIdempotencyKey(ctx context.Context, scope, key string, result []byte, ttl time.Duration) error
	GetIdempotencyKey(ctx context.Context, scope, key string) ([]byte, error)
}

// OrderView is an order with the values the console derives from it.
type OrderView struct {
	*models.Order
	Breakdown    *terms.Breakdown     `json:"breakdown,omitempty"`
	NextStatuses []models.OrderStatus `json:"nextStatuses"`
	Deletable    bool                 `json:"deletable"`
	Cancellable  bool                 `json:"cancellable"`
	Editable     bool                 `json:"editable"`
}

// newOrderView derives display values for the given role.
func newOrderView(o *models.Order, role models.Role, logger *zap.Logger) OrderView {
	v := OrderView{
		Order:        o,
		NextStatuses: o.Status.NextStatuses(role),
		Deletable:    o.IsDeletable(),
		Cancellable:  o.Status.CanTransition(models.OrderStatusCancelled, role),
		Editable:     o.Status.IsEditable(),
	}

	b, ok, err := terms.ForOrder(o)
	switch {
	case err != nil:
		logger.Warn("order carries invalid terms", zap.String("order_id", o.ID.String()), zap.Error(err))
	case ok:
		clientCurrency := o.Terms.ClientCurrency
		if clientCurrency == "" {
			clientCurrency = o.Currency
		}
		rounded := b.Rounded(o.Currency, clientCurrency)
		v.Breakdown = &rounded
	}
	return v
}

// OrderHandler handles the client's order endpoints.
type OrderHandler struct {
	api         *apiclient.Client
	idempotency IdempotencyStore
	docs        config.DocumentsConfig
	logger      *zap.Logger
}

// NewOrderHandler creates a new order handler. idempotency may be nil.
func NewOrderHandler(api *apiclient.Client, idempotency IdempotencyStore, docs config.DocumentsConfig, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		api:         api,
		idempotency: idempotency,
		docs:        docs,
		logger:      logger,
	}
}

func currentRole(r *http.Request) models.Role {
	if user, ok := auth.UserFrom(r.Context()); ok {
		return user.Role
	}
	return models.RoleClient
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequest(w, "invalid order ID")
		return uuid.Nil, false
	}
	return id, true
}

// parseOrderFilter reads listing filters from the query string.
func parseOrderFilter(r *http.Request) (models.OrderFilter, error) {
	q := r.URL.Query()
	filter := models.OrderFilter{
		Limit:  50,
		Search: strings.TrimSpace(q.Get("search")),
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 500 {
			filter.Limit = limit
		}
	}

	if offsetStr := q.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	if status := q.Get("status"); status != "" {
		s, err := models.ParseOrderStatus(status)
		if err != nil {
			return filter, err
		}
		filter.Status = &s
	}

	if currency := q.Get("currency"); currency != "" {
		currency = strings.ToUpper(currency)
		filter.Currency = &currency
	}

	return filter, nil
}

// List returns the caller's orders.
// GET /api/v1/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	page, err := h.api.ListOrders(r.Context(), filter)
	if err != nil {
		UpstreamError(w, h.logger, err, "orders")
		return
	}

	JSON(w, http.StatusOK, page)
}

// Get returns an order with its terms breakdown and available actions.
// GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.api.GetOrder(r.Context(), id)
	if err != nil {
		UpstreamError(w, h.logger, err, "order")
		return
	}

	JSON(w, http.StatusOK, newOrderView(order, currentRole(r), h.logger))
}

// Create creates a new order. A repeated Idempotency-Key returns the order
// created by the first request.
// POST /api/v1/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderParams
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	req.Beneficiary.BIC = strings.ToUpper(strings.TrimSpace(req.Beneficiary.BIC))
	if err := req.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	scope := ""
	if user, ok := auth.UserFrom(r.Context()); ok {
		scope = user.ID.String()
	}

	if key != "" && h.idempotency != nil {
		existing, err := h.idempotency.GetIdempotencyKey(r.Context(), scope, key)
		if err != nil {
			h.logger.Warn("failed to check idempotency", zap.Error(err))
		} else if existing != nil {
			var order models.Order
			if err := json.Unmarshal(existing, &order); err == nil {
				JSON(w, http.StatusOK, newOrderView(&order, currentRole(r), h.logger)) // Return existing order
				return
			}
		}
	}

	order, err := h.api.CreateOrder(r.Context(), req)
	if err != nil {
		UpstreamError(w, h.logger, err, "order")
		return
	}

	if key != "" && h.idempotency != nil {
		if data, err := json.Marshal(order); err == nil {
			err = h.idempotency.SetIdempotencyKey(r.Context(), scope, key, data, idempotencyTTL)
			if err != nil && !errors.Is(err, cache.ErrKeyExists) {
				h.logger.Warn("failed to store idempotency key", zap.Error(err))
			}
		}
	}

	JSON(w, http.StatusCreated, newOrderView(order, currentRole(r), h.logger))
}

// Update edits an order while it is still in created status.
// PATCH /api/v1/orders/{id}
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req models.UpdateOrderParams
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*req.Currency))
		req.Currency = &c
	}
	if req.Beneficiary != nil {
		req.Beneficiary.BIC = strings.ToUpper(strings.TrimSpace(req.Beneficiary.BIC))
	}
	if err := req.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	current, err := h.api.GetOrder(r.Context(), id)
	if err != nil {
		UpstreamError(w, h.logger, err, "order")
		return
	}
	if !current.Status.IsEditable() {
		Conflict(w, fmt.Sprintf("order in status %s can no longer be edited", current.Status))
		return
	}

	order, err := h.api.UpdateOrder(r.Context(), id, req)
	if err != nil {
		UpstreamError(w, h.logger, err, "order")
		return
	}

	JSON(w, http.StatusOK, newOrderView(order, currentRole(r), h.logger))
}

// CancelRequest carries an optional cancellation note.
type CancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// Cancel cancels an order. Only staff can restore it afterwards.
// POST /api/v1/orders/{id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req CancelRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	current, err := h.api.GetOrder(r.Context(), id)
	if err != nil {
		UpstreamError(w, h.logger, err, "order")
		return
	}

	role := currentRole(r)
	if !current.Status.CanTransition(models.OrderStatusCancelled, role) {
		Conflict(w, fmt.Sprintf("order in status %s cannot be cancelled", current.Status))
		return
	}

	order, err := h.api.SetOrderStatus(r.Context(), id, models.StatusChange{
		Status: models.OrderStatusCancelled,
		Reason: req.Reason,
	})
	metrics.RecordStatusChange(string(current.Status), string(models.OrderStatusCancelled), err == nil)
	if err != nil {
		UpstreamError(w, h.logger, err, "order")
		return
	}

	JSON(w, http.StatusOK, newOrderView(order, role, h.logger))
}

// Delete removes a rejected order.
// DELETE /api/v1/orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	current, err := h.api.GetOrder(r.Context(), id)
	if err != nil {
		UpstreamError(w, h.logger, err, "order")
		return
	}
	if !current.IsDeletable() {
		Conflict(w, "only rejected orders can be deleted")
		return
	}

	if err := h.api.DeleteOrder(r.Context(), id); err != nil {
		UpstreamError(w, h.logger, err, "order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) fileTooLarge(w http.ResponseWriter) {
	Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
		fmt.Sprintf("file exceeds %d bytes", h.docs.MaxBytes))
}

// UploadDocument attaches a supporting document to an order.
// POST /api/v1/orders/{id}/documents (multipart: file, kind)
func (h *OrderHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.docs.MaxBytes+(1<<20))
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fileTooLarge(w)
			return
		}
		BadRequest(w, "invalid multipart upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	kind := models.DocumentKind(r.FormValue("kind"))
	if kind == "" {
		kind = models.DocumentKindOther
	}
	if !kind.Valid() {
		BadRequest(w, "invalid document kind")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.docs.MaxBytes {
		h.fileTooLarge(w)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = sniffContentType(file)
	}
	if !slices.Contains(h.docs.AllowedTypes, contentType) {
		Error(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE",
			fmt.Sprintf("documents of type %s are not accepted", contentType))
		return
	}

	doc, err := h.api.UploadDocument(r.Context(), id, apiclient.DocumentUpload{
		Kind:        kind,
		FileName:    filepath.Base(header.Filename),
		ContentType: contentType,
		Content:     file,
	})
	metrics.RecordDocumentUpload(string(kind), err == nil)
	if err != nil {
		UpstreamError(w, h.logger, err, "document")
		return
	}

	JSON(w, http.StatusCreated, doc)
}

// sniffContentType detects the type from the first bytes and rewinds the file.
func sniffContentType(f io.ReadSeeker) string {
	buf := make([]byte, 512)
	n, _ := io.ReadFull(f, buf)
	f.Seek(0, io.SeekStart)
	ct := http.DetectContentType(buf[:n])
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// ListDocuments returns an order's documents.
// GET /api/v1/orders/{id}/documents
func (h *OrderHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	docs, err := h.api.ListDocuments(r.Context(), id)
	if err != nil {
		UpstreamError(w, h.logger, err, "documents")
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}

	JSON(w, http.StatusOK, docs)
}
