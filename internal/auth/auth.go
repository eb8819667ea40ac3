package auth

import (
	"context"
	"sync"
)

// Credentials are the application-visible half of a session.
type Credentials struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
}

// TokenStore persists the access token and user id between requests.
//
// Implementations return an empty string and a nil error when nothing is stored.
type TokenStore interface {
	AccessToken() (string, error)
	UserID() (string, error)
	Save(creds Credentials) error
	Clear() error
}

// Refresher exchanges the refresh token cookie for a new access token.
type Refresher interface {
	Refresh(ctx context.Context) (*Credentials, error)
}

// Navigator sends the user somewhere else. It is only used when the session ends.
type Navigator interface {
	RedirectTo(path string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(path string)

func (f NavigatorFunc) RedirectTo(path string) { f(path) }

// MemoryStore is a [TokenStore] that lives as long as the process.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewMemoryStore returns a store seeded with creds.
func NewMemoryStore(creds Credentials) *MemoryStore {
	return &MemoryStore{creds: creds}
}

func (s *MemoryStore) AccessToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AccessToken, nil
}

func (s *MemoryStore) UserID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.UserID, nil
}

func (s *MemoryStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}
