package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ztx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// state exposes the refresh state for assertions.
func (c *Coordinator) state() (refreshing bool, pending int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing, len(c.queue)
}

// waitFor polls cond until it holds or five seconds pass.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

type fakeRefresher struct {
	calls   atomic.Int32
	creds   *Credentials
	err     error
	explode bool
	ctxOK   atomic.Bool
	// gate runs inside Refresh before it returns
	gate func()
}

func (f *fakeRefresher) Refresh(ctx context.Context) (*Credentials, error) {
	f.calls.Add(1)
	f.ctxOK.Store(ctx.Err() == nil)
	if f.gate != nil {
		f.gate()
	}
	if f.explode {
		panic("refresher exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	creds := *f.creds
	return &creds, nil
}

type countingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *countingNavigator) RedirectTo(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *countingNavigator) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type failingStore struct{ MemoryStore }

func (s *failingStore) AccessToken() (string, error) { return "", errors.New("disk on fire") }

// burst calls Refresh from n goroutines, holding the refresher until n-1 of them are queued.
func burst(t *testing.T, c *Coordinator, f *fakeRefresher, n int) ([]*Credentials, []error) {
	t.Helper()

	f.gate = func() {
		if !waitFor(func() bool { _, p := c.state(); return p == n-1 }) {
			t.Errorf("only some callers queued before the refresh settled")
		}
	}

	creds := make([]*Credentials, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			creds[i], errs[i] = c.Refresh(context.Background())
		}(i)
	}
	wg.Wait()
	return creds, errs
}

func TestCoordinatorAuthorize(t *testing.T) {
	t.Run("sets bearer token from store", func(t *testing.T) {
		c := NewCoordinator(NewMemoryStore(Credentials{AccessToken: "T1", UserID: "u1"}), &fakeRefresher{})
		req, _ := http.NewRequest(http.MethodGet, "http://example.test/tasks", nil)

		out := c.Authorize(req)

		if got := out.Header.Get("Authorization"); got != "Bearer T1" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer T1")
		}
		if req.Header.Get("Authorization") != "" {
			t.Error("Authorize must not mutate the original request")
		}
	})

	t.Run("no token leaves request unauthenticated", func(t *testing.T) {
		c := NewCoordinator(NewMemoryStore(Credentials{}), &fakeRefresher{})
		req, _ := http.NewRequest(http.MethodGet, "http://example.test/tasks", nil)

		if got := c.Authorize(req).Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
	})

	t.Run("store failure is treated as no token", func(t *testing.T) {
		c := NewCoordinator(&failingStore{}, &fakeRefresher{})
		req, _ := http.NewRequest(http.MethodGet, "http://example.test/tasks", nil)

		if got := c.Authorize(req).Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
	})

	t.Run("replay token wins over store", func(t *testing.T) {
		c := NewCoordinator(NewMemoryStore(Credentials{AccessToken: "stale"}), &fakeRefresher{})
		ctx := withRetry(context.Background(), "T2")
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.test/tasks", nil)

		if got := c.Authorize(req).Header.Get("Authorization"); got != "Bearer T2" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer T2")
		}
	})
}

func TestCoordinatorRefresh(t *testing.T) {
	t.Run("one refresh call per burst", func(t *testing.T) {
		store := NewMemoryStore(Credentials{AccessToken: "T1", UserID: "u1"})
		f := &fakeRefresher{creds: &Credentials{AccessToken: "T2", UserID: "u1"}}
		c := NewCoordinator(store, f)

		creds, errs := burst(t, c, f, 5)

		if got := f.calls.Load(); got != 1 {
			t.Fatalf("refresh calls = %d, want 1", got)
		}
		for i := range creds {
			if errs[i] != nil {
				t.Errorf("caller %d: unexpected error %v", i, errs[i])
				continue
			}
			if creds[i].AccessToken != "T2" {
				t.Errorf("caller %d: token = %q, want T2", i, creds[i].AccessToken)
			}
		}
		if tok, _ := store.AccessToken(); tok != "T2" {
			t.Errorf("stored token = %q, want T2", tok)
		}
		if refreshing, pending := c.state(); refreshing || pending != 0 {
			t.Errorf("state = (%v, %d), want idle", refreshing, pending)
		}
	})

	t.Run("critical failure clears store and navigates once", func(t *testing.T) {
		store := NewMemoryStore(Credentials{AccessToken: "T1", UserID: "u1"})
		nav := &countingNavigator{}
		refreshErr := shared.ParseAPIError(http.StatusUnauthorized, []byte(`{"message":"Invalid refresh token"}`))
		f := &fakeRefresher{err: refreshErr}
		c := NewCoordinator(store, f, WithNavigator(nav), WithLoginPath("/login"))

		_, errs := burst(t, c, f, 3)

		for i, err := range errs {
			if !errors.Is(err, shared.ErrSessionExpired) {
				t.Errorf("caller %d: error = %v, want ErrSessionExpired", i, err)
			}
			var apiErr *shared.APIError
			if !errors.As(err, &apiErr) || apiErr.Message != "Invalid refresh token" {
				t.Errorf("caller %d: expected refresh APIError, got %v", i, err)
			}
		}

		if tok, _ := store.AccessToken(); tok != "" {
			t.Errorf("token should be cleared, got %q", tok)
		}
		if id, _ := store.UserID(); id != "" {
			t.Errorf("user id should be cleared, got %q", id)
		}
		if paths := nav.calls(); len(paths) != 1 || paths[0] != "/login" {
			t.Errorf("navigator calls = %v, want [/login]", paths)
		}
	})

	t.Run("non-critical failure keeps store", func(t *testing.T) {
		store := NewMemoryStore(Credentials{AccessToken: "T1", UserID: "u1"})
		nav := &countingNavigator{}
		f := &fakeRefresher{err: errors.New("dial tcp: connection refused")}
		c := NewCoordinator(store, f, WithNavigator(nav))

		_, errs := burst(t, c, f, 3)

		for i, err := range errs {
			if !errors.Is(err, shared.ErrRefreshFailed) {
				t.Errorf("caller %d: error = %v, want ErrRefreshFailed", i, err)
			}
			if errors.Is(err, shared.ErrSessionExpired) {
				t.Errorf("caller %d: non-critical failure reported as session expiry", i)
			}
		}
		if tok, _ := store.AccessToken(); tok != "T1" {
			t.Errorf("token = %q, want T1 untouched", tok)
		}
		if len(nav.calls()) != 0 {
			t.Errorf("navigator should not be called, got %v", nav.calls())
		}
	})

	t.Run("state resets after failure", func(t *testing.T) {
		f := &fakeRefresher{err: errors.New("timeout")}
		c := NewCoordinator(NewMemoryStore(Credentials{}), f)

		if _, err := c.Refresh(context.Background()); err == nil {
			t.Fatal("expected first refresh to fail")
		}

		f.err = nil
		f.creds = &Credentials{AccessToken: "T3"}
		creds, err := c.Refresh(context.Background())
		if err != nil {
			t.Fatalf("second refresh error = %v", err)
		}
		if creds.AccessToken != "T3" {
			t.Errorf("token = %q, want T3", creds.AccessToken)
		}
		if got := f.calls.Load(); got != 2 {
			t.Errorf("refresh calls = %d, want 2", got)
		}
	})

	t.Run("empty access token is a failure", func(t *testing.T) {
		store := NewMemoryStore(Credentials{AccessToken: "T1"})
		f := &fakeRefresher{creds: &Credentials{}}
		c := NewCoordinator(store, f)

		if _, err := c.Refresh(context.Background()); !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("error = %v, want ErrRefreshFailed", err)
		}
		if tok, _ := store.AccessToken(); tok != "T1" {
			t.Errorf("token = %q, want T1 untouched", tok)
		}
	})

	t.Run("panic settles every caller", func(t *testing.T) {
		f := &fakeRefresher{explode: true}
		c := NewCoordinator(NewMemoryStore(Credentials{}), f)

		_, errs := burst(t, c, f, 3)

		for i, err := range errs {
			if !errors.Is(err, shared.ErrRefreshFailed) {
				t.Errorf("caller %d: error = %v, want ErrRefreshFailed", i, err)
			}
		}
		if refreshing, pending := c.state(); refreshing || pending != 0 {
			t.Errorf("state = (%v, %d), want idle", refreshing, pending)
		}
	})

	t.Run("refresh ignores caller cancellation", func(t *testing.T) {
		f := &fakeRefresher{creds: &Credentials{AccessToken: "T2"}}
		c := NewCoordinator(NewMemoryStore(Credentials{}), f)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := c.Refresh(ctx); err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
		if !f.ctxOK.Load() {
			t.Error("refresher saw a cancelled context")
		}
	})
}

func TestCoordinatorToken(t *testing.T) {
	t.Run("reads expiry from JWT", func(t *testing.T) {
		exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(exp),
		}).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}

		c := NewCoordinator(NewMemoryStore(Credentials{AccessToken: raw}), &fakeRefresher{})
		tok, err := c.Token()
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if !tok.Expiry.Equal(exp) {
			t.Errorf("Expiry = %v, want %v", tok.Expiry, exp)
		}
		if tok.Type() != "Bearer" {
			t.Errorf("Type() = %q, want Bearer", tok.Type())
		}
	})

	t.Run("opaque token has no expiry", func(t *testing.T) {
		c := NewCoordinator(NewMemoryStore(Credentials{AccessToken: "opaque"}), &fakeRefresher{})
		tok, err := c.Token()
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if !tok.Expiry.IsZero() {
			t.Errorf("Expiry = %v, want zero", tok.Expiry)
		}
	})

	t.Run("no token", func(t *testing.T) {
		c := NewCoordinator(NewMemoryStore(Credentials{}), &fakeRefresher{})
		if _, err := c.Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("error = %v, want ErrNotAuthenticated", err)
		}
	})
}
