// Package session is the single source of truth for a visitor's bearer
// token. Tokens are decoded to read role and expiry; signatures are the
// upstream API's concern and are not verified here.
package session

import (
	"errors"
	"fmt"
	"predictor/internal/models"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleAssistant = "assistant"

	tokenKey = "token"
)

var ErrNoToken = errors.New("no session token")

type Claims struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	Email       string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// Expired reports whether the token is past its exp claim. Tokens without
// exp never expire client-side.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(c.ExpiresAt.Time)
}

// Decode parses a JWT without verifying its signature.
func Decode(token string) (*Claims, error) {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return nil, fmt.Errorf("malformed token: %w", err)
	}
	if claims.Role == "" {
		claims.Role = RoleUser
	}
	return claims, nil
}

type Session struct {
	mu      sync.Mutex
	visitor string
	store   models.ClientStoreInterface
	now     func() time.Time
}

func New(visitorID string, store models.ClientStoreInterface, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{visitor: visitorID, store: store, now: now}
}

func (s *Session) VisitorID() string {
	return s.visitor
}

// Set stores token after checking it decodes and has not expired.
func (s *Session) Set(token string) (*Claims, error) {
	claims, err := Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Expired(s.now()) {
		return nil, errors.New("token already expired")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Set(models.VisitorKey(s.visitor, tokenKey), []byte(token))
	return claims, nil
}

// Token returns the stored token. An undecodable or expired token is purged
// and reported as absent.
func (s *Session) Token() (string, bool) {
	token, _, ok := s.load()
	return token, ok
}

func (s *Session) Claims() (*Claims, bool) {
	_, claims, ok := s.load()
	return claims, ok
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Delete(models.VisitorKey(s.visitor, tokenKey))
}

func (s *Session) load() (string, *Claims, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.VisitorKey(s.visitor, tokenKey)
	raw, ok := s.store.Get(key)
	if !ok {
		return "", nil, false
	}
	token := string(raw)
	claims, err := Decode(token)
	if err != nil || claims.Expired(s.now()) {
		s.store.Delete(key)
		return "", nil, false
	}
	return token, claims, true
}
