package auth

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims defines the session token claims structure.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager issues, validates, and revokes session tokens. Tokens are signed
// JWTs; by default the signing key is generated at startup, so no session
// survives a process restart. Logout is backed by an in-memory revocation
// set keyed by token ID, since a signed token cannot be unsigned.
type Manager struct {
	key []byte
	ttl time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // token ID -> token expiry
}

// NewManager creates a session manager. An empty key means a fresh random
// key for this process.
func NewManager(key []byte, ttl time.Duration) (*Manager, error) {
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generating session key: %w", err)
		}
	}
	return &Manager{
		key:     key,
		ttl:     ttl,
		revoked: make(map[string]time.Time),
	}, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue creates a new session token bound to the given username.
func (m *Manager) Issue(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// Validate parses and validates a session token, rejecting revoked ones.
func (m *Manager) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if m.isRevoked(claims.ID) {
		return nil, fmt.Errorf("session revoked")
	}
	return claims, nil
}

// Revoke destroys the session with the given token ID. Revocations are
// pruned once the underlying token would have expired anyway.
func (m *Manager) Revoke(tokenID string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, id)
		}
	}
	m.revoked[tokenID] = expiresAt
}

func (m *Manager) isRevoked(tokenID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, found := m.revoked[tokenID]
	return found
}
