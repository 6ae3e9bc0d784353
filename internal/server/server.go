package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"remitdesk/internal/apiclient"
	"remitdesk/internal/auth"
	"remitdesk/internal/cache"
	"remitdesk/internal/config"
	"remitdesk/internal/db"
	"remitdesk/internal/entities"
	"remitdesk/internal/handler"
	"remitdesk/internal/metrics"
	"remitdesk/internal/repository"
)

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	router      http.Handler
	logger      *zap.Logger
	database    *db.DB
	cacheClient *cache.Client
	api         *apiclient.Client
}

// Config holds server dependencies. Database and CacheClient are optional:
// without a database the audit journal is off, without a cache sessions,
// rate limits and reference caching fall back or switch off.
type Config struct {
	App         *config.Config
	Database    *db.DB
	CacheClient *cache.Client
	API         *apiclient.Client
	Entities    *entities.Client
	Sessions    auth.Store
	Logger      *zap.Logger
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		logger:      cfg.Logger,
		database:    cfg.Database,
		cacheClient: cfg.CacheClient,
		api:         cfg.API,
	}

	// Optional stores stay untyped nil when their backend is absent.
	var (
		auditStore  handler.AuditStore
		idempotency handler.IdempotencyStore
		refCache    handler.JSONCache
		limiter     handler.RateLimiter
	)
	if cfg.Database != nil {
		auditStore = repository.NewAuditRepository(cfg.Database.Pool())
	}
	if cfg.CacheClient != nil {
		idempotency = cfg.CacheClient
		refCache = cfg.CacheClient
		limiter = cfg.CacheClient
	}

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.API, cfg.Sessions, cfg.App.Session, cfg.Logger)
	orderHandler := handler.NewOrderHandler(cfg.API, idempotency, cfg.App.Documents, cfg.Logger)
	staffOrderHandler := handler.NewStaffOrderHandler(cfg.API, auditStore, cfg.Logger)
	kycHandler := handler.NewKYCHandler(cfg.API, auditStore, cfg.Logger)
	badgeHandler := handler.NewBadgeHandler(cfg.Entities, auditStore, cfg.Logger)
	payerHandler := handler.NewPayerAccountHandler(cfg.API, auditStore, cfg.Logger)
	referenceHandler := handler.NewReferenceHandler(cfg.API, refCache, cfg.Logger)
	auditHandler := handler.NewAuditHandler(auditStore, cfg.Logger)

	rateLimit := handler.RateLimit(limiter, cfg.App.RateLimit.PerMinute, cfg.Logger)

	// Setup chi router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.zapLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check endpoints
	r.Get("/health", s.healthCheck)
	r.Get("/ready", s.readyCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.With(rateLimit).Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authHandler.RequireSession)
			r.Use(rateLimit)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			// Orders
			r.Get("/orders", orderHandler.List)
			r.Post("/orders", orderHandler.Create)
			r.Get("/orders/{id}", orderHandler.Get)
			r.Patch("/orders/{id}", orderHandler.Update)
			r.Delete("/orders/{id}", orderHandler.Delete)
			r.Post("/orders/{id}/cancel", orderHandler.Cancel)
			r.Post("/orders/{id}/documents", orderHandler.UploadDocument)
			r.Get("/orders/{id}/documents", orderHandler.ListDocuments)

			r.Post("/terms/preview", handler.PreviewTerms)

			// KYC
			r.Get("/kyc", kycHandler.Get)
			r.Put("/kyc", kycHandler.Save)
			r.Post("/kyc/submit", kycHandler.Submit)

			r.Get("/badges", badgeHandler.List)
			r.Get("/payer-accounts", payerHandler.ListActive)

			// Reference data
			r.Get("/reference/currencies", referenceHandler.Currencies)
			r.Get("/reference/bic/{bic}", referenceHandler.BIC)

			// Staff tools
			r.Route("/staff", func(r chi.Router) {
				r.Use(handler.RequireStaff)

				r.Get("/orders", staffOrderHandler.List)
				r.Get("/orders/{id}", orderHandler.Get)
				r.Put("/orders/{id}/terms", staffOrderHandler.SetTerms)
				r.Post("/orders/{id}/status", staffOrderHandler.ChangeStatus)
				r.Post("/orders/{id}/restore", staffOrderHandler.Restore)

				r.Get("/kyc", kycHandler.List)
				r.Post("/kyc/{id}/decision", kycHandler.Decide)

				r.Get("/clients/{id}/badges", badgeHandler.ListForClient)
				r.Put("/clients/{id}/badges/{badgeID}", badgeHandler.SetStatus)

				r.Get("/payer-accounts", payerHandler.List)
				r.Post("/payer-accounts", payerHandler.Create)
				r.Get("/payer-accounts/{id}", payerHandler.Get)
				r.Put("/payer-accounts/{id}", payerHandler.Update)
				r.Delete("/payer-accounts/{id}", payerHandler.Deactivate)

				r.Get("/audit", auditHandler.List)
			})
		})
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// healthCheck returns basic health status.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readyCheck returns readiness status (all dependencies available).
func (s *Server) readyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Check PostgreSQL
	if s.database != nil {
		if err := s.database.Ping(ctx); err != nil {
			notReady(w, "database unavailable")
			return
		}
	}

	// Check Redis
	if s.cacheClient != nil {
		if err := s.cacheClient.Ping(ctx); err != nil {
			notReady(w, "cache unavailable")
			return
		}
	}

	// Check platform API
	if err := s.api.Ping(ctx); err != nil {
		s.logger.Warn("platform API unreachable", zap.Error(err))
		notReady(w, "platform unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func notReady(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	fmt.Fprintf(w, `{"status":"not ready","reason":%q}`, reason)
}

// zapLogger is a middleware that logs requests using zap.
func (s *Server) zapLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
