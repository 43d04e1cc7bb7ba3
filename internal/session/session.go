// Package session provides explicit user sessions identified by opaque
// tokens. Sessions are passed to the operations that need them; there is no
// package-level current user.
//
// Thread Safety: Session and MemoryStore are safe for concurrent use.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the token does not name a live session.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidOwner indicates an empty or blank owner name.
	ErrInvalidOwner = errors.New("invalid session owner")
)

// Session is one authenticated user's conversational state. The previous
// answer is carried here so follow-up questions can opt into it as extra
// context.
type Session struct {
	Token     string
	Owner     string
	CreatedAt time.Time

	mu             sync.Mutex
	previousAnswer string
}

// PreviousAnswer returns the most recent answer given in this session, or ""
// if none yet.
func (s *Session) PreviousAnswer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previousAnswer
}

// SetPreviousAnswer records the latest answer for follow-up questions.
func (s *Session) SetPreviousAnswer(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previousAnswer = text
}

// TokenStore issues and resolves session tokens.
type TokenStore interface {
	Issue(owner string) (*Session, error)
	Lookup(token string) (*Session, error)
	Revoke(token string) error
}

// MemoryStore is an in-process TokenStore. Sessions live until revoked or
// the process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Issue creates a session for owner with a fresh random token.
func (m *MemoryStore) Issue(owner string) (*Session, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrInvalidOwner
	}

	s := &Session{
		Token:     uuid.NewString(),
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	return s, nil
}

// Lookup resolves a token to its session.
func (m *MemoryStore) Lookup(token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, token)
	}
	return s, nil
}

// Revoke ends the session for token.
func (m *MemoryStore) Revoke(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[token]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, token)
	}
	delete(m.sessions, token)
	return nil
}
