package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ztx/internal/auth"
	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with email and password. The access token goes to the session store and the
// refresh token cookie to the persistent cookie jar.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email, password := cmd.String("email"), cmd.String("password")
	if password == "" {
		return fmt.Errorf("%w: --password or ZTX_PASSWORD is required", shared.ErrMissingArgument)
	}

	client, err := r.client()
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", email, "backend", client.BaseURL())
	resp, err := client.Auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Signed in as %s (%s)\n", resp.User.DisplayName(), resp.User.Email)
}

// AuthRegister creates an account and signs in with it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	req := models.RegisterRequest{
		Email:     cmd.String("email"),
		Password:  cmd.String("password"),
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
	}
	if req.Password == "" {
		return fmt.Errorf("%w: --password or ZTX_PASSWORD is required", shared.ErrMissingArgument)
	}

	client, err := r.client()
	if err != nil {
		return err
	}

	resp, err := client.Auth.Register(ctx, req)
	if err != nil {
		return err
	}

	r.logger.Info("account created", "user", resp.User.ID)
	return r.writePlain("✓ Registered and signed in as %s\n", resp.User.Email)
}

// AuthLogout signs out on the server and always forgets the local session and cookies.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	b, err := r.session()
	if err != nil {
		return err
	}

	if cmd.Bool("all") {
		_, err = b.Client.Auth.LogoutAll(ctx)
	} else {
		_, err = b.Client.Auth.Logout(ctx)
	}
	if err != nil {
		r.logger.Warn("server logout failed, clearing local session anyway", "error", err)
	}

	if token, serr := b.Store.AccessToken(); serr != nil || token != "" {
		if cerr := b.Store.Clear(); cerr != nil {
			return fmt.Errorf("failed to clear session: %w", cerr)
		}
	}
	if b.Jar != nil {
		if err := b.Jar.Clear(); err != nil {
			return fmt.Errorf("failed to clear cookies: %w", err)
		}
	}

	return r.writePlain("✓ Signed out\n")
}

// AuthStatus shows the stored session without calling the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	b, err := r.session()
	if err != nil {
		return err
	}

	token, err := b.Store.AccessToken()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	userID, err := b.Store.UserID()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	r.writePlain("Backend: %s\n", b.Client.BaseURL())
	if token == "" {
		return r.writePlain("Session: ✗ Not signed in\n")
	}

	r.writePlain("Session: ✓ Signed in\n")
	r.writePlain("User: %s\n", userID)

	info, err := auth.InspectToken(token)
	if err != nil {
		r.logger.Debug("access token is not a JWT", "error", err)
		return r.writePlain("Access token: opaque\n")
	}

	now := time.Now()
	switch {
	case info.ExpiresAt.IsZero():
		r.writePlain("Access token: no expiry\n")
	case info.Expired(now):
		r.writePlain("Access token: expired %s ago (refreshed on next request)\n", now.Sub(info.ExpiresAt).Round(time.Second))
	default:
		r.writePlain("Access token: expires in %s\n", info.ExpiresAt.Sub(now).Round(time.Second))
	}
	return nil
}

// AuthProfile fetches the signed in user.
func (r *Runner) AuthProfile(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client()
	if err != nil {
		return err
	}

	user, err := client.Auth.Profile(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlainHeader(user.DisplayName())
	r.writePlain("ID: %s\n", user.ID)
	r.writePlain("Email: %s\n", user.Email)
	if len(user.Roles) > 0 {
		r.writePlain("Roles: %v\n", user.Roles)
	}
	return nil
}

// AuthRefresh forces a token refresh through the coordinator, as a 401 would.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	b, err := r.session()
	if err != nil {
		return err
	}

	creds, err := b.Coordinator.Refresh(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("access token refreshed", "user", creds.UserID)
	if info, err := auth.InspectToken(creds.AccessToken); err == nil && !info.ExpiresAt.IsZero() {
		return r.writePlain("✓ Access token refreshed, expires in %s\n", time.Until(info.ExpiresAt).Round(time.Second))
	}
	return r.writePlain("✓ Access token refreshed\n")
}
