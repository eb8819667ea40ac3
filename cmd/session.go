package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ztx/internal/auth"
	"github.com/desertthunder/ztx/internal/repositories"
	"github.com/desertthunder/ztx/internal/services"
	"github.com/desertthunder/ztx/internal/shared"
)

// cookieStore is the part of the cookie jar the CLI needs after login: forgetting the refresh token.
type cookieStore interface {
	Clear() error
}

// Backend is the wired request pipeline of one backend:
// services.Client -> auth.Transport -> http.DefaultTransport, with credentials and cookies kept in SQLite.
type Backend struct {
	DB          *sql.DB
	Store       auth.TokenStore
	Jar         cookieStore
	Coordinator *auth.Coordinator
	Client      *services.Client
}

// Close releases the database. It is safe on a Backend without one.
func (b *Backend) Close() error {
	if b == nil || b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// connectFunc builds a [Backend] from configuration. Replaced in tests.
type connectFunc func(cfg *shared.Config, logger *log.Logger) (*Backend, error)

// connect opens the database, runs pending migrations and assembles the authenticated client.
//
// The refresher gets its own http.Client that shares the cookie jar but not the guarded transport,
// so a refresh call can never trigger another refresh.
func connect(cfg *shared.Config, logger *log.Logger) (*Backend, error) {
	db, err := shared.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	baseURL := strings.TrimRight(cfg.API.BaseURL, "/")
	store := repositories.NewSession(repositories.NewCredentialRepository(db), baseURL)

	jar, err := repositories.NewPersistentJar(
		repositories.NewCookieRepository(db), baseURL, shared.WithLogger(logger, "component", "cookies"),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	refresher := auth.NewHTTPRefresher(baseURL, cfg.Auth.RefreshPath, &http.Client{
		Jar:     jar,
		Timeout: cfg.API.Timeout.Duration,
	})
	refresher.SetUserAgent(cfg.API.UserAgent)

	coordinator := auth.NewCoordinator(store, refresher,
		auth.WithNavigator(cliNavigator(logger)),
		auth.WithLoginPath(cfg.Auth.LoginPath),
		auth.WithLogger(shared.WithLogger(logger, "component", "auth")),
	)

	httpClient := &http.Client{
		Jar:       jar,
		Timeout:   cfg.API.Timeout.Duration,
		Transport: auth.NewTransport(coordinator, http.DefaultTransport),
	}

	client := services.NewClient(baseURL, httpClient,
		services.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		services.WithRetryPolicy(services.RetryPolicyFromConfig(cfg.Retry)),
		services.WithUserAgent(cfg.API.UserAgent),
		services.WithLogger(shared.WithLogger(logger, "component", "api")),
		services.WithSession(store),
	)

	return &Backend{DB: db, Store: store, Jar: jar, Coordinator: coordinator, Client: client}, nil
}

// cliNavigator stands in for the login page: a terminal cannot redirect, so it tells the user how to sign in.
func cliNavigator(logger *log.Logger) auth.Navigator {
	return auth.NavigatorFunc(func(path string) {
		logger.Warn("session expired, run `ztx auth login` to sign in again", "redirect", path)
	})
}
