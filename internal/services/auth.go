package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/ztx/internal/auth"
	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
)

// AuthService covers /auth.
//
// Login and register are sent with [auth.NoRefresh]: a 401 there means wrong credentials, not a stale token.
type AuthService struct {
	c *Client
}

// Login exchanges email and password for an access token. The refresh token arrives as a cookie.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password", shared.ErrMissingArgument)
	}
	return s.authenticate(ctx, "/auth/login", models.LoginRequest{Email: email, Password: password})
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password", shared.ErrMissingArgument)
	}
	return s.authenticate(ctx, "/auth/register", req)
}

func (s *AuthService) authenticate(ctx context.Context, path string, body any) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := s.c.do(auth.NoRefresh(ctx), http.MethodPost, path, nil, body, &out); err != nil {
		var apiErr *shared.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, apiErr.Message)
		}
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: response has no access token", shared.ErrAuthFailed)
	}

	if s.c.session != nil {
		creds := auth.Credentials{AccessToken: out.AccessToken, UserID: out.User.ID}
		if err := s.c.session.Save(creds); err != nil {
			return &out, fmt.Errorf("logged in but failed to save session: %w", err)
		}
	}
	return &out, nil
}

// Profile returns the current user.
func (s *AuthService) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := s.c.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the current session on the backend. An expired access token is refreshed first so the server
// revokes the refresh token. The local session is cleared even when the call fails.
func (s *AuthService) Logout(ctx context.Context) (*models.MessageResponse, error) {
	return s.logout(ctx, "/auth/logout")
}

// LogoutAll ends every session of the user on the backend.
func (s *AuthService) LogoutAll(ctx context.Context) (*models.MessageResponse, error) {
	return s.logout(ctx, "/auth/logout-all")
}

func (s *AuthService) logout(ctx context.Context, path string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	err := s.c.do(ctx, http.MethodGet, path, nil, nil, &out)

	if s.c.session != nil {
		if clearErr := s.c.session.Clear(); clearErr != nil {
			return nil, errors.Join(err, fmt.Errorf("failed to clear session: %w", clearErr))
		}
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
