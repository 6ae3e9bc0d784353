package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"remitdesk/internal/apiclient"
	"remitdesk/internal/metrics"
	"remitdesk/internal/models"
	"remitdesk/internal/terms"
)

// StaffOrderHandler handles the staff side of the order lifecycle.
type StaffOrderHandler struct {
	api    *apiclient.Client
	audit  auditor
	logger *zap.Logger
}

// NewStaffOrderHandler creates a new staff order handler. audit may be nil.
func NewStaffOrderHandler(api *apiclient.Client, audit AuditStore, logger *zap.Logger) *StaffOrderHandler {
	return &StaffOrderHandler{
		api:    api,
		audit:  auditor{store: audit, logger: logger},
		logger: logger,
	}
}

// List returns orders across clients.
// GET /api/v1/staff/orders
func (h *StaffOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	if clientStr := r.URL.Query().Get("client_id"); clientStr != "" {
		clientID, err := uuid.Parse(clientStr)
		if err != nil {
			BadRequest(w, "invalid client_id")
			return
		}
		filter.ClientID = &clientID
	}

	page, err := h.api.ListOrders(r.Context(), filter)
	if err != nil {
		UpstreamError(w, h.logger, err, "orders")
		return
	}

	JSON(w, http.StatusOK, page)
}

// SetTerms stores remuneration and FX terms and returns the recalculated order.
// PUT /api/v1/staff/orders/{id}/terms
func (h *StaffOrderHandler) SetTerms(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req models.Terms
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ClientCurrency = strings.ToUpper(strings.TrimSpace(req.ClientCurrency))
	if req.ClientCurrency != "" && !models.ValidCurrency(req.ClientCurrency) {
		BadRequest(w, "clientCurrency must be a 3-letter ISO code")
		return
	}
	if err := terms.Validate(req); err != nil {
		BadRequest(w, err.Error())
		return
	}

	order, err := h.api.SetTerms(r.Context(), id, req)
	if err != nil {
		UpstreamError(w, h.logger, err, "order")
		return
	}

	h.audit.record(r, "order.terms_set", "order", id.String(), req)

	JSON(w, http.StatusOK, newOrderView(order, currentRole(r), h.logger))
}

// ChangeStatus moves an order along its lifecycle.
// POST /api/v1/staff/orders/{id}/status
func (h *StaffOrderHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req models.StatusChange
	if !decodeJSON(w, r, &req) {
		return
	}
	next, err := models.ParseOrderStatus(string(req.Status))
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	if next == models.OrderStatusRejected && (req.Reason == nil || strings.TrimSpace(*req.Reason) == "") {
		BadRequest(w, "reason is required when rejecting an order")
		return
	}

	h.transition(w, r, id, models.StatusChange{Status: next, Reason: req.Reason})
}

// Restore returns a cancelled order to created.
// POST /api/v1/staff/orders/{id}/restore
func (h *StaffOrderHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	h.transition(w, r, id, models.StatusChange{Status: models.OrderStatusCreated})
}

// transition pre-flights the move against the lifecycle table before asking
// the platform, which has the final word.
func (h *StaffOrderHandler) transition(w http.ResponseWriter, r *http.Request, id uuid.UUID, change models.StatusChange) {
	current, err := h.api.GetOrder(r.Context(), id)
	if err != nil {
		UpstreamError(w, h.logger, err, "order")
		return
	}

	role := currentRole(r)
	if !current.Status.CanTransition(change.Status, role) {
		metrics.RecordStatusChange(string(current.Status), string(change.Status), false)
		Conflict(w, fmt.Sprintf("cannot move order from %s to %s", current.Status, change.Status))
		return
	}

	order, err := h.api.SetOrderStatus(r.Context(), id, change)
	metrics.RecordStatusChange(string(current.Status), string(change.Status), err == nil)
	if err != nil {
		UpstreamError(w, h.logger, err, "order")
		return
	}

	h.audit.record(r, "order.status_changed", "order", id.String(), map[string]any{
		"from":   current.Status,
		"to":     change.Status,
		"reason": change.Reason,
	})

	h.logger.Info("order status changed",
		zap.String("order_id", id.String()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(change.Status)),
	)

	JSON(w, http.StatusOK, newOrderView(order, role, h.logger))
}
