package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/ztx/internal/auth"
	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
	tu "github.com/desertthunder/ztx/internal/testing"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()

	t.Run("Login", func(t *testing.T) {
		t.Run("Saves Session", func(t *testing.T) {
			b := tu.NewFakeBackend(t)
			s := newStack(t, b, false)

			resp, err := s.client.Auth.Login(ctx, tu.FakeEmail, tu.FakePassword)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.User.DisplayName() != "Ada Lovelace" {
				t.Errorf("expected Ada Lovelace, got %q", resp.User.DisplayName())
			}

			token, _ := s.store.AccessToken()
			userID, _ := s.store.UserID()
			if token != b.AccessToken() || userID != "u-1" {
				t.Errorf("expected saved session, got token %q user %q", token, userID)
			}

			if _, err := s.client.Auth.Profile(ctx); err != nil {
				t.Errorf("expected profile after login, got %v", err)
			}
		})

		t.Run("Refresh Cookie Survives Expiry", func(t *testing.T) {
			b := tu.NewFakeBackend(t)
			s := newStack(t, b, false)

			if _, err := s.client.Auth.Login(ctx, tu.FakeEmail, tu.FakePassword); err != nil {
				t.Fatalf("login failed: %v", err)
			}
			b.ExpireAccess()

			if _, err := s.client.Auth.Profile(ctx); err != nil {
				t.Fatalf("expected refresh with the login cookie, got %v", err)
			}
			if b.RefreshCalls() != 1 {
				t.Errorf("expected one refresh, got %d", b.RefreshCalls())
			}
		})

		t.Run("Wrong Password Does Not Refresh", func(t *testing.T) {
			b := tu.NewFakeBackend(t)
			s := newStack(t, b, false)

			_, err := s.client.Auth.Login(ctx, tu.FakeEmail, "nope")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Fatalf("expected ErrAuthFailed, got %v", err)
			}
			if b.Hits("POST /auth/refresh") != 0 {
				t.Error("expected no refresh for a login 401")
			}
			if b.Hits("POST /auth/login") != 1 {
				t.Errorf("expected a single login attempt, got %d", b.Hits("POST /auth/login"))
			}
			if got := s.redirected(); len(got) != 0 {
				t.Errorf("expected no redirect, got %v", got)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			c := NewClient("http://example.com", nil)
			if _, err := c.Auth.Login(ctx, "", "x"); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("Validation Messages", func(t *testing.T) {
			b := tu.NewFakeBackend(t)
			s := newStack(t, b, false)

			_, err := s.client.Auth.Register(ctx, models.RegisterRequest{Email: "nope", Password: "x"})

			var apiErr *shared.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.StatusCode != http.StatusBadRequest || len(apiErr.Messages) != 2 {
				t.Errorf("unexpected error %d %v", apiErr.StatusCode, apiErr.Messages)
			}
			if apiErr.Message != "email must be an email" {
				t.Errorf("expected first message, got %q", apiErr.Message)
			}
			if b.Hits("POST /auth/register") != 1 {
				t.Error("expected 400 not to be retried")
			}
		})

		t.Run("Logs In", func(t *testing.T) {
			b := tu.NewFakeBackend(t)
			s := newStack(t, b, false)

			resp, err := s.client.Auth.Register(ctx, models.RegisterRequest{Email: "grace@example.com", Password: "pw", FirstName: "Grace"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if userID, _ := s.store.UserID(); userID != resp.User.ID {
				t.Errorf("expected saved user %s, got %s", resp.User.ID, userID)
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("Clears Session", func(t *testing.T) {
			b := tu.NewFakeBackend(t)
			s := newStack(t, b, true)

			resp, err := s.client.Auth.Logout(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.Message == "" {
				t.Error("expected logout message")
			}
			if token, _ := s.store.AccessToken(); token != "" {
				t.Errorf("expected cleared session, got %q", token)
			}
		})

		t.Run("Clears Session When Server Fails", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			store := auth.NewMemoryStore(auth.Credentials{AccessToken: "a", UserID: "u"})
			c := NewClient(server.URL, nil, WithRetryPolicy(RetryPolicy{}), WithSession(store))

			if _, err := c.Auth.LogoutAll(ctx); err == nil {
				t.Error("expected server error to be reported")
			}
			if token, _ := store.AccessToken(); token != "" {
				t.Errorf("expected cleared session, got %q", token)
			}
		})

		t.Run("Expired Token Is Refreshed Before Logout", func(t *testing.T) {
			b := tu.NewFakeBackend(t)
			s := newStack(t, b, true)
			b.ExpireAccess()

			if _, err := s.client.Auth.Logout(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := b.RefreshCalls(); got != 1 {
				t.Errorf("expected 1 refresh, got %d", got)
			}
			if got := b.Hits("GET /auth/logout"); got != 2 {
				t.Errorf("expected logout to be replayed once, got %d requests", got)
			}
			if b.RefreshValid() {
				t.Error("expected refresh token to be revoked on the server")
			}
			if token, _ := s.store.AccessToken(); token != "" {
				t.Errorf("expected cleared session, got %q", token)
			}
		})
	})
}
