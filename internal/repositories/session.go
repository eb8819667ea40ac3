package repositories

import (
	"errors"
	"strings"

	"github.com/desertthunder/ztx/internal/auth"
	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
)

// Session is an [auth.TokenStore] keeping the credential of one backend in SQLite.
type Session struct {
	repo    *CredentialRepository
	baseURL string
}

// NewSession binds repo to the backend at baseURL.
func NewSession(repo *CredentialRepository, baseURL string) *Session {
	return &Session{repo: repo, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Session) load() (*models.Credential, error) {
	c, err := s.repo.GetByBaseURL(s.baseURL)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// AccessToken returns the saved token, or "" when logged out.
func (s *Session) AccessToken() (string, error) {
	c, err := s.load()
	if err != nil || c == nil {
		return "", err
	}
	return c.AccessToken(), nil
}

// UserID returns the saved user id, or "" when logged out.
func (s *Session) UserID() (string, error) {
	c, err := s.load()
	if err != nil || c == nil {
		return "", err
	}
	return c.UserID(), nil
}

// Save replaces the saved credential.
func (s *Session) Save(creds auth.Credentials) error {
	return s.repo.Upsert(models.NewCredential(s.baseURL, creds.AccessToken, creds.UserID))
}

// Clear forgets the access token and user id.
func (s *Session) Clear() error {
	return s.repo.DeleteByBaseURL(s.baseURL)
}

var _ auth.TokenStore = (*Session)(nil)
