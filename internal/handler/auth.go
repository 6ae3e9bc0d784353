package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"remitdesk/internal/apiclient"
	"remitdesk/internal/auth"
	"remitdesk/internal/config"
)

// AuthHandler handles login, logout and the session middleware.
type AuthHandler struct {
	api      *apiclient.Client
	sessions auth.Store
	cfg      config.SessionConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(api *apiclient.Client, sessions auth.Store, cfg config.SessionConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		api:      api,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login signs a user in through the platform and opens a session.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		BadRequest(w, "email and password are required")
		return
	}

	res, err := h.api.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.Is(err, apiclient.ErrUnauthorized) || (errors.As(err, &apiErr) && apiErr.IsValidation()) {
			Unauthorized(w, "invalid email or password")
			return
		}
		UpstreamError(w, h.logger, err, "login")
		return
	}

	session, err := auth.NewSession(res.AccessToken, res.User, h.cfg.TTL, h.now())
	if err != nil {
		h.logger.Warn("platform issued unusable token", zap.Error(err))
		Unauthorized(w, "login token rejected")
		return
	}

	if err := h.sessions.Save(r.Context(), session); err != nil {
		h.logger.Error("failed to save session", zap.Error(err))
		InternalError(w, "failed to start session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user signed in",
		zap.String("user_id", session.User.ID.String()),
		zap.String("role", string(session.User.Role)),
	)

	JSON(w, http.StatusOK, session.User)
}

// Logout closes the current session.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if s, ok := auth.SessionFrom(r.Context()); ok {
		if err := h.sessions.Delete(r.Context(), s.ID); err != nil {
			h.logger.Warn("failed to delete session", zap.Error(err))
		}
	}
	h.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		Unauthorized(w, "not signed in")
		return
	}
	JSON(w, http.StatusOK, user)
}

// RequireSession loads the session named by the cookie and attaches it and
// its token to the request context.
func (h *AuthHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(h.cfg.CookieName)
		if err != nil || cookie.Value == "" {
			Unauthorized(w, "not signed in")
			return
		}

		session, err := h.sessions.Load(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, auth.ErrNoSession) {
				h.logger.Error("failed to load session", zap.Error(err))
				InternalError(w, "failed to load session")
				return
			}
			h.clearCookie(w)
			Error(w, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired, please sign in again")
			return
		}

		ctx := auth.WithSession(r.Context(), session)
		ctx = apiclient.WithToken(ctx, session.Token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireStaff rejects users who are not staff.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFrom(r.Context())
		if !ok {
			Unauthorized(w, "not signed in")
			return
		}
		if !user.IsStaff() {
			Forbidden(w, "staff only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// DropSessionOnUnauthorized is the platform client's 401 hook: the session
// whose token was refused is deleted so the next request goes back to login.
func DropSessionOnUnauthorized(sessions auth.Store, logger *zap.Logger) func(ctx context.Context) {
	return func(ctx context.Context) {
		s, ok := auth.SessionFrom(ctx)
		if !ok {
			return
		}
		// The request context may already be cancelled by the time we get here.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := sessions.Delete(ctx, s.ID); err != nil {
			logger.Warn("failed to drop rejected session", zap.Error(err))
			return
		}
		logger.Info("session dropped after platform 401", zap.String("user_id", s.User.ID.String()))
	}
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
