// Package auth keeps track of who is signed in to the console.
//
// The platform API issues and verifies access tokens. The console only
// stores the token next to the user it belongs to and forgets it when the
// token expires or the platform answers 401.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"remitdesk/internal/cache"
	"remitdesk/internal/models"
)

// ErrNoSession is returned when a session id is unknown or expired.
var ErrNoSession = errors.New("no session")

// Session is a signed-in user and their platform token.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Store persists sessions.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Claims are the token fields the console reads. The signature is not
// checked here; the platform does that on every call.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ParseClaims decodes a JWT access token without verifying it.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// NewSession builds a session for a freshly issued token. The session lives
// for ttl, or until the token's exp claim if that is sooner. A role claim
// must agree with the user the platform returned. Opaque tokens without
// claims just get ttl.
func NewSession(token string, user models.User, ttl time.Duration, now time.Time) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	claims, err := ParseClaims(token)
	if err != nil {
		return s, nil
	}
	if claims.Role != "" && !strings.EqualFold(claims.Role, string(user.Role)) {
		return nil, fmt.Errorf("token role %q does not match user role %q", claims.Role, user.Role)
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		if !exp.After(now) {
			return nil, fmt.Errorf("token already expired at %s", exp.Format(time.RFC3339))
		}
		if exp.Before(s.ExpiresAt) {
			s.ExpiresAt = exp
		}
	}

	return s, nil
}

type sessionKey struct{}

// WithSession stores a session in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored in ctx.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// UserFrom returns the signed-in user, if any.
func UserFrom(ctx context.Context) (*models.User, bool) {
	s, ok := SessionFrom(ctx)
	if !ok {
		return nil, false
	}
	return &s.User, true
}

// RedisStore keeps sessions in Redis.
type RedisStore struct {
	cache *cache.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(c *cache.Client) *RedisStore {
	return &RedisStore{cache: c}
}

func sessionRedisKey(id string) string {
	return "session:" + id
}

// Save stores s until it expires.
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrNoSession
	}
	return r.cache.SetJSON(ctx, sessionRedisKey(s.ID), s, ttl)
}

// Load retrieves a session.
func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	var s Session
	found, err := r.cache.GetJSON(ctx, sessionRedisKey(id), &s)
	if err != nil {
		return nil, err
	}
	if !found || s.Expired(time.Now()) {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Delete removes a session.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.cache.Delete(ctx, sessionRedisKey(id))
}

// MemoryStore keeps sessions in process memory. Used when Redis is not configured.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session), now: time.Now}
}

// Save stores s.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

// Load retrieves a session, dropping it if expired.
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	if s.Expired(m.now()) {
		delete(m.sessions, id)
		return nil, ErrNoSession
	}
	return &s, nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
