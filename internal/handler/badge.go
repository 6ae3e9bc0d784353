package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"remitdesk/internal/entities"
	"remitdesk/internal/models"
)

// BadgeHandler handles the document-requirement badges kept in the entities backend.
type BadgeHandler struct {
	entities *entities.Client
	audit    auditor
	logger   *zap.Logger
}

// NewBadgeHandler creates a new badge handler. audit may be nil.
func NewBadgeHandler(ec *entities.Client, audit AuditStore, logger *zap.Logger) *BadgeHandler {
	return &BadgeHandler{
		entities: ec,
		audit:    auditor{store: audit, logger: logger},
		logger:   logger,
	}
}

// List returns the caller's badges.
// GET /api/v1/badges
func (h *BadgeHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID, ok := clientIDOf(w, r)
	if !ok {
		return
	}
	h.list(w, r, clientID)
}

// ListForClient returns a client's badges.
// GET /api/v1/staff/clients/{id}/badges
func (h *BadgeHandler) ListForClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequest(w, "invalid client ID")
		return
	}
	h.list(w, r, clientID)
}

func (h *BadgeHandler) list(w http.ResponseWriter, r *http.Request, clientID uuid.UUID) {
	views, err := h.entities.BadgeViews(r.Context(), clientID)
	if err != nil {
		UpstreamError(w, h.logger, err, "badges")
		return
	}
	JSON(w, http.StatusOK, views)
}

// SetStatusRequest carries a new badge status.
type SetStatusRequest struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment,omitempty"`
}

// SetStatus updates a client's badge.
// PUT /api/v1/staff/clients/{id}/badges/{badgeID}
func (h *BadgeHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequest(w, "invalid client ID")
		return
	}
	badgeID := strings.TrimSpace(chi.URLParam(r, "badgeID"))
	if badgeID == "" {
		BadRequest(w, "badge ID is required")
		return
	}

	var req SetStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := models.ParseBadgeStatus(req.Status)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	cb, err := h.entities.SetClientBadgeStatus(r.Context(), clientID, badgeID, status, req.Comment)
	if err != nil {
		UpstreamError(w, h.logger, err, "badge")
		return
	}

	h.audit.record(r, "badge.status_set", "client", clientID.String(), map[string]any{
		"badgeId": badgeID,
		"status":  status,
		"comment": req.Comment,
	})

	JSON(w, http.StatusOK, cb)
}
