// Package session provides the in-memory session store, the localStorage
// of the web client.
package session

import (
	"sync"

	"github.com/golang-jwt/jwt/v5"

	domsession "example.com/storefront/internal/domain/session"
)

// MemoryStore holds the session for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	sess domsession.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored session. A session that carries a token but no
// username is filled in from the token's claims, so the header can always
// show a display identity for a logged-in user.
func (s *MemoryStore) Get() domsession.Session {
	s.mu.RLock()
	sess := s.sess
	s.mu.RUnlock()

	if sess.Username == "" && sess.Token != "" {
		sess.Username = usernameFromToken(sess.Token)
	}
	return sess
}

func (s *MemoryStore) Set(sess domsession.Session) {
	s.mu.Lock()
	s.sess = sess
	s.mu.Unlock()
}

// Clear wipes token and username, the logout flow.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	s.sess = domsession.Session{}
	s.mu.Unlock()
}

type tokenClaims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// usernameFromToken reads the display name out of the JWT claims without
// verifying the signature. Verification is the server's job; the client
// only needs the label.
func usernameFromToken(token string) string {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ""
	}
	if claims.Username != "" {
		return claims.Username
	}
	return claims.Name
}
