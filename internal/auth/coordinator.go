package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ztx/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultLoginPath is where the [Navigator] is sent after a critical refresh failure.
const DefaultLoginPath = "/login"

type refreshResult struct {
	creds *Credentials
	err   error
}

// Coordinator owns the access token of one API client and serializes its refreshes.
//
// The zero value is not usable; construct one with [NewCoordinator].
type Coordinator struct {
	store     TokenStore
	refresher Refresher
	navigator Navigator
	loginPath string
	logger    *log.Logger

	mu         sync.Mutex
	refreshing bool
	queue      []chan refreshResult
}

// Option configures a [Coordinator].
type Option func(*Coordinator)

// WithNavigator sets the collaborator invoked when the session ends.
func WithNavigator(n Navigator) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.navigator = n
		}
	}
}

// WithLoginPath overrides [DefaultLoginPath].
func WithLoginPath(path string) Option {
	return func(c *Coordinator) {
		if path != "" {
			c.loginPath = path
		}
	}
}

// WithLogger sets the logger used for refresh events.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a coordinator reading and writing credentials through store and refreshing them
// through refresher.
func NewCoordinator(store TokenStore, refresher Refresher, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		refresher: refresher,
		navigator: NavigatorFunc(func(string) {}),
		loginPath: DefaultLoginPath,
		logger:    shared.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the token store the coordinator reads from.
func (c *Coordinator) Store() TokenStore {
	return c.store
}

// Authorize returns a clone of req carrying the current access token.
//
// Replays carry the token they were resumed with; it takes precedence over the store so a replay never
// goes out with a token older than the refresh that woke it.
func (c *Coordinator) Authorize(req *http.Request) *http.Request {
	out := req.Clone(req.Context())

	token := retryToken(req.Context())
	if token == "" {
		stored, err := c.store.AccessToken()
		if err != nil {
			c.logger.Debug("failed to read access token", "err", err)
		} else {
			token = stored
		}
	}

	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(out)
	}
	return out
}

// Refresh returns fresh credentials, performing at most one refresh call for all concurrent callers.
//
// The first caller while idle issues the call; callers arriving while it is outstanding wait for its result.
// The call is detached from ctx cancellation so one caller giving up cannot fail the others.
// Failures are wrapped in [shared.ErrSessionExpired] when critical and [shared.ErrRefreshFailed] otherwise.
func (c *Coordinator) Refresh(ctx context.Context) (*Credentials, error) {
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan refreshResult, 1)
		c.queue = append(c.queue, ch)
		c.mu.Unlock()

		res := <-ch
		return res.creds, res.err
	}
	c.refreshing = true
	c.mu.Unlock()

	return c.lead(context.WithoutCancel(ctx))
}

func (c *Coordinator) lead(ctx context.Context) (creds *Credentials, err error) {
	defer func() {
		if r := recover(); r != nil {
			creds, err = nil, fmt.Errorf("%w: panic during refresh: %v", shared.ErrRefreshFailed, r)
			c.logger.Error("refresh panicked", "panic", r)
		}
		c.settle(refreshResult{creds: creds, err: err})
	}()

	c.logger.Debug("refreshing access token")

	creds, err = c.refresher.Refresh(ctx)
	if err == nil && (creds == nil || creds.AccessToken == "") {
		err = fmt.Errorf("%w: no access token in refresh response", shared.ErrRefreshFailed)
	}
	if err != nil {
		return nil, c.fail(err)
	}

	if saveErr := c.store.Save(*creds); saveErr != nil {
		c.logger.Warn("failed to persist refreshed credentials", "err", saveErr)
	}
	c.logger.Info("access token refreshed", "user", creds.UserID)
	return creds, nil
}

// fail handles a refresh error and returns the error handed to every request of the burst.
func (c *Coordinator) fail(err error) error {
	if !IsCritical(err) {
		c.logger.Warn("token refresh failed", "err", err)
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	c.logger.Error("critical refresh error, clearing credentials", "err", err)
	if clearErr := c.store.Clear(); clearErr != nil {
		c.logger.Error("failed to clear credentials", "err", clearErr)
	}
	c.navigator.RedirectTo(c.loginPath)
	return fmt.Errorf("%w: %w", shared.ErrSessionExpired, err)
}

// settle returns the coordinator to idle and hands res to every queued caller exactly once.
func (c *Coordinator) settle(res refreshResult) {
	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.refreshing = false
	c.mu.Unlock()

	if len(queue) > 0 {
		c.logger.Debug("releasing queued requests", "count", len(queue))
	}
	for _, ch := range queue {
		ch <- res
	}
}

// Token implements [oauth2.TokenSource] over the stored access token.
//
// The expiry is read from the token's "exp" claim when it is a JWT and left zero otherwise.
func (c *Coordinator) Token() (*oauth2.Token, error) {
	access, err := c.store.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read access token: %w", err)
	}
	if access == "" {
		return nil, shared.ErrNotAuthenticated
	}

	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if info, err := InspectToken(access); err == nil {
		tok.Expiry = info.ExpiresAt
	}
	return tok, nil
}

var _ oauth2.TokenSource = (*Coordinator)(nil)
