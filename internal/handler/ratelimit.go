package handler

import (
	"context"
	"net"
	"net/http"

	"go.uber.org/zap"

	"remitdesk/internal/auth"
)

// RateLimiter counts requests per subject over a sliding minute.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, subject string, limitPerMinute int) (bool, error)
}

// RateLimit limits requests per session, or per client address before sign-in.
// Limiter failures let the request through.
func RateLimit(limiter RateLimiter, perMinute int, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := "ip:" + clientHost(r.RemoteAddr)
			if s, ok := auth.SessionFrom(r.Context()); ok {
				subject = "user:" + s.User.ID.String()
			}

			allowed, err := limiter.CheckRateLimit(r.Context(), subject, perMinute)
			if err != nil {
				logger.Warn("rate limit check failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				TooManyRequests(w, "too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientHost drops the port so every connection from one address shares a bucket.
func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
