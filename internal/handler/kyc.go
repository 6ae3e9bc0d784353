package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"remitdesk/internal/apiclient"
	"remitdesk/internal/auth"
	"remitdesk/internal/metrics"
	"remitdesk/internal/models"
)

// KYCHandler handles onboarding questionnaires.
type KYCHandler struct {
	api    *apiclient.Client
	audit  auditor
	logger *zap.Logger
}

// NewKYCHandler creates a new KYC handler. audit may be nil.
func NewKYCHandler(api *apiclient.Client, audit AuditStore, logger *zap.Logger) *KYCHandler {
	return &KYCHandler{
		api:    api,
		audit:  auditor{store: audit, logger: logger},
		logger: logger,
	}
}

// clientIDOf returns the client the signed-in user acts for.
func clientIDOf(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		Unauthorized(w, "not signed in")
		return uuid.Nil, false
	}
	if user.ClientID == nil {
		Forbidden(w, "user is not linked to a client")
		return uuid.Nil, false
	}
	return *user.ClientID, true
}

// Get returns the caller's application.
// GET /api/v1/kyc
func (h *KYCHandler) Get(w http.ResponseWriter, r *http.Request) {
	clientID, ok := clientIDOf(w, r)
	if !ok {
		return
	}

	app, err := h.api.GetKYCApplication(r.Context(), clientID)
	if err != nil {
		UpstreamError(w, h.logger, err, "kyc application")
		return
	}

	JSON(w, http.StatusOK, app)
}

// Save stores a draft of the caller's application.
// PUT /api/v1/kyc
func (h *KYCHandler) Save(w http.ResponseWriter, r *http.Request) {
	clientID, ok := clientIDOf(w, r)
	if !ok {
		return
	}

	var req models.KYCApplication
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := models.ValidateUBOs(req.UBOs); err != nil {
		BadRequest(w, err.Error())
		return
	}

	current, err := h.api.GetKYCApplication(r.Context(), clientID)
	if err != nil && !isNotFound(err) {
		UpstreamError(w, h.logger, err, "kyc application")
		return
	}
	if current != nil && !current.Status.IsEditable() {
		Conflict(w, fmt.Sprintf("application in status %s can no longer be edited", current.Status))
		return
	}

	req.ClientID = clientID
	app, err := h.api.SaveKYCApplication(r.Context(), clientID, req)
	if err != nil {
		UpstreamError(w, h.logger, err, "kyc application")
		return
	}

	JSON(w, http.StatusOK, app)
}

// Submit sends the caller's application for review.
// POST /api/v1/kyc/submit
func (h *KYCHandler) Submit(w http.ResponseWriter, r *http.Request) {
	clientID, ok := clientIDOf(w, r)
	if !ok {
		return
	}

	current, err := h.api.GetKYCApplication(r.Context(), clientID)
	if err != nil {
		UpstreamError(w, h.logger, err, "kyc application")
		return
	}
	if !current.Status.IsEditable() {
		Conflict(w, fmt.Sprintf("application in status %s cannot be submitted", current.Status))
		return
	}
	if err := current.ValidateForSubmit(); err != nil {
		Error(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error())
		return
	}

	app, err := h.api.SubmitKYCApplication(r.Context(), clientID)
	if err != nil {
		UpstreamError(w, h.logger, err, "kyc application")
		return
	}

	h.logger.Info("kyc application submitted", zap.String("client_id", clientID.String()))

	JSON(w, http.StatusOK, app)
}

// List returns applications for review.
// GET /api/v1/staff/kyc
func (h *KYCHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.KYCStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := models.ParseKYCStatus(s)
		if err != nil {
			BadRequest(w, err.Error())
			return
		}
		status = &st
	}

	apps, err := h.api.ListKYCApplications(r.Context(), status)
	if err != nil {
		UpstreamError(w, h.logger, err, "kyc applications")
		return
	}
	if apps == nil {
		apps = []models.KYCApplication{}
	}

	JSON(w, http.StatusOK, apps)
}

// Decide approves or rejects an application.
// POST /api/v1/staff/kyc/{id}/decision
func (h *KYCHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequest(w, "invalid application ID")
		return
	}

	var req models.KYCDecision
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Approve && (req.Comment == nil || *req.Comment == "") {
		BadRequest(w, "comment is required when rejecting an application")
		return
	}

	app, err := h.api.DecideKYCApplication(r.Context(), id, req)
	if err != nil {
		UpstreamError(w, h.logger, err, "kyc application")
		return
	}
	metrics.RecordKYCDecision(req.Approve)

	h.audit.record(r, "kyc.decided", "kyc_application", id.String(), req)

	JSON(w, http.StatusOK, app)
}

func isNotFound(err error) bool {
	return errors.Is(err, apiclient.ErrNotFound)
}
