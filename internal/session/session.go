// Package session holds the bearer token pair and the authenticated
// flag. Tokens are persisted through a pluggable Store so the session
// survives restarts; tests substitute an in-memory one.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Fixed storage keys for the persisted token pair.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// Store is the persistence boundary for tokens. Get returns "" for a
// missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Manager owns the in-memory session state. It is the single writer of
// the token pair; the API client only reads through AccessToken.
type Manager struct {
	mu      sync.RWMutex
	store   Store
	access  string
	refresh string
	now     func() time.Time
}

// NewManager hydrates the session from the store.
func NewManager(ctx context.Context, store Store) (*Manager, error) {
	m := &Manager{store: store, now: time.Now}
	access, err := store.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("hydrate access token: %w", err)
	}
	refresh, err := store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("hydrate refresh token: %w", err)
	}
	m.access, m.refresh = access, refresh
	return m, nil
}

// Login persists the token pair and flips the session to authenticated.
func (m *Manager) Login(ctx context.Context, access, refresh string) error {
	if err := m.store.Set(ctx, KeyAccessToken, access); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := m.store.Set(ctx, KeyRefreshToken, refresh); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	m.mu.Lock()
	m.access, m.refresh = access, refresh
	m.mu.Unlock()
	return nil
}

// Logout clears both tokens, in memory and in the store.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.access, m.refresh = "", ""
	m.mu.Unlock()
	if err := m.store.Delete(ctx, KeyAccessToken); err != nil {
		return fmt.Errorf("clear access token: %w", err)
	}
	if err := m.store.Delete(ctx, KeyRefreshToken); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// IsAuthenticated is true iff an access token is present and not
// known-expired. Expiry is only knowable for JWTs carrying an exp claim;
// opaque tokens are assumed live until the upstream rejects them. There
// is no silent refresh: expiry always means re-login.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access != "" && !knownExpired(m.access, m.now())
}

// AccessToken returns the current access token. Implements the API
// client's token source.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access
}

// RefreshToken returns the stored refresh token. It is persisted for a
// future refresh flow but never exercised automatically.
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refresh
}

// knownExpired parses the token as a JWT without verifying its signature
// (this client never holds the signing key) and checks the exp claim.
func knownExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false // opaque token, expiry unknowable
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
