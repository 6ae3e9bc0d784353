package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"remitdesk/internal/auth"
	"remitdesk/internal/models"
)

// AuditStore records and lists staff actions.
type AuditStore interface {
	Record(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditEntry, error)
}

// auditor writes journal entries for staff mutations. A nil store disables it.
type auditor struct {
	store  AuditStore
	logger *zap.Logger
}

// record appends an entry. Failures are logged; the staff action already
// happened upstream and is not rolled back.
func (a auditor) record(r *http.Request, action, subjectType, subjectID string, payload any) {
	if a.store == nil {
		return
	}
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		return
	}

	entry := &models.AuditEntry{
		ActorID:     user.ID,
		ActorEmail:  user.Email,
		Action:      action,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		RequestID:   middleware.GetReqID(r.Context()),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			a.logger.Warn("failed to encode audit payload", zap.String("action", action), zap.Error(err))
		} else {
			entry.Payload = data
		}
	}

	if err := a.store.Record(r.Context(), entry); err != nil {
		a.logger.Error("failed to record audit entry",
			zap.String("action", action),
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
	}
}

// AuditHandler serves the staff action journal.
type AuditHandler struct {
	store  AuditStore
	logger *zap.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(store AuditStore, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{store: store, logger: logger}
}

// List returns journal entries.
// GET /api/v1/staff/audit
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		JSON(w, http.StatusOK, []*models.AuditEntry{})
		return
	}

	q := r.URL.Query()
	filter := models.AuditFilter{
		SubjectType: q.Get("subject_type"),
		SubjectID:   q.Get("subject_id"),
		Limit:       100,
	}

	if actor := q.Get("actor_id"); actor != "" {
		id, err := uuid.Parse(actor)
		if err != nil {
			BadRequest(w, "invalid actor_id")
			return
		}
		filter.ActorID = &id
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 1000 {
			filter.Limit = limit
		}
	}

	if offsetStr := q.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	entries, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list audit entries", zap.Error(err))
		InternalError(w, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}

	JSON(w, http.StatusOK, entries)
}
