package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"taskboard/cache"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const SessionCookieName = "taskboard_session"

var ErrSessionRevoked = errors.New("session revoked")

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// RevocationStore keeps revoked token ids when no cache is configured.
type RevocationStore interface {
	RevokeSession(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsSessionRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionManager issues and validates session tokens. Revoked token ids go
// to the cache when one is configured and to the revocation store otherwise.
type SessionManager struct {
	key          []byte
	ttl          time.Duration
	secureCookie bool
	cache        *cache.Cache
	revocations  RevocationStore
	now          func() time.Time
}

type SessionOption func(*SessionManager)

func WithRevocationStore(store RevocationStore) SessionOption {
	return func(m *SessionManager) {
		m.revocations = store
	}
}

func NewSessionManager(secret string, ttl time.Duration, secureCookie bool, c *cache.Cache, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		key:          []byte(secret),
		ttl:          ttl,
		secureCookie: secureCookie,
		cache:        c,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SessionManager) Issue(userID string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *SessionManager) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.key, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	revoked, err := m.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

// Revoke blocks the token id until the token would have expired anyway.
func (m *SessionManager) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	if !m.cache.Enabled() && m.revocations != nil {
		return m.revocations.RevokeSession(ctx, claims.ID, claims.ExpiresAt.Time)
	}
	return m.cache.Set(ctx, revokedKey(claims.ID), "1", ttl)
}

func (m *SessionManager) isRevoked(ctx context.Context, tokenID string) (bool, error) {
	if !m.cache.Enabled() && m.revocations != nil {
		return m.revocations.IsSessionRevoked(ctx, tokenID)
	}
	return m.cache.Exists(ctx, revokedKey(tokenID))
}

func (m *SessionManager) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest reads the session cookie, falling back to a bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func revokedKey(tokenID string) string {
	return "session:revoked:" + tokenID
}
