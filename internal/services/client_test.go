package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ztx/internal/auth"
	"github.com/desertthunder/ztx/internal/shared"
	tu "github.com/desertthunder/ztx/internal/testing"
)

var fastRetry = RetryPolicy{
	QueryRetries:     3,
	MutationRetries:  1,
	BaseDelay:        time.Millisecond,
	QueryMaxDelay:    5 * time.Millisecond,
	MutationMaxDelay: 5 * time.Millisecond,
}

// stack is a client wired the way the CLI wires it: refresh transport, shared cookie jar, in-memory session.
type stack struct {
	client *Client
	store  *auth.MemoryStore

	mu        sync.Mutex
	redirects []string
}

func (s *stack) redirected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.redirects...)
}

func newStack(t *testing.T, b *tu.FakeBackend, loggedIn bool) *stack {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create jar: %v", err)
	}

	s := &stack{store: auth.NewMemoryStore(auth.Credentials{})}
	if loggedIn {
		token, cookie := b.Session()
		u, _ := url.Parse(b.URL)
		jar.SetCookies(u, []*http.Cookie{cookie})
		s.store.Save(auth.Credentials{AccessToken: token, UserID: "u-1"})
	}

	refresher := auth.NewHTTPRefresher(b.URL, "", &http.Client{Jar: jar})
	nav := auth.NavigatorFunc(func(path string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.redirects = append(s.redirects, path)
	})
	coord := auth.NewCoordinator(s.store, refresher, auth.WithNavigator(nav))

	httpClient := &http.Client{Jar: jar, Transport: auth.NewTransport(coord, nil)}
	s.client = NewClient(b.URL, httpClient, WithRetryPolicy(fastRetry), WithSession(s.store))
	return s
}

func TestRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()

	t.Run("Retries", func(t *testing.T) {
		tests := []struct {
			method string
			want   int
		}{
			{http.MethodGet, 3},
			{http.MethodHead, 3},
			{http.MethodPost, 1},
			{http.MethodPatch, 1},
			{http.MethodDelete, 1},
		}
		for _, tt := range tests {
			if got := p.Retries(tt.method); got != tt.want {
				t.Errorf("Retries(%s) = %d, want %d", tt.method, got, tt.want)
			}
		}
	})

	t.Run("Delay", func(t *testing.T) {
		tests := []struct {
			method  string
			attempt int
			want    time.Duration
		}{
			{http.MethodGet, 0, time.Second},
			{http.MethodGet, 1, 2 * time.Second},
			{http.MethodGet, 2, 4 * time.Second},
			{http.MethodGet, 3, 8 * time.Second},
			{http.MethodGet, 4, 10 * time.Second},
			{http.MethodGet, 30, 10 * time.Second},
			{http.MethodPost, 0, time.Second},
			{http.MethodPost, 2, 4 * time.Second},
			{http.MethodPost, 3, 5 * time.Second},
		}
		for _, tt := range tests {
			if got := p.Delay(tt.method, tt.attempt); got != tt.want {
				t.Errorf("Delay(%s, %d) = %v, want %v", tt.method, tt.attempt, got, tt.want)
			}
		}
	})

	t.Run("Delay Without Max", func(t *testing.T) {
		unbounded := RetryPolicy{BaseDelay: time.Second}

		prev := time.Duration(0)
		for _, attempt := range []int{0, 10, 33, 40, 64, 200} {
			got := unbounded.Delay(http.MethodGet, attempt)
			if got <= 0 {
				t.Fatalf("Delay(GET, %d) = %v, want positive", attempt, got)
			}
			if got < prev {
				t.Errorf("Delay(GET, %d) = %v, shorter than %v", attempt, got, prev)
			}
			prev = got
		}
	})

	t.Run("From Config", func(t *testing.T) {
		got := RetryPolicyFromConfig(shared.DefaultConfig().Retry)
		if got.QueryRetries != 3 || got.MutationRetries != 1 {
			t.Errorf("expected 3/1 retries, got %d/%d", got.QueryRetries, got.MutationRetries)
		}
		if got.BaseDelay != time.Second {
			t.Errorf("expected base delay 1s, got %v", got.BaseDelay)
		}
	})
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", fmt.Errorf("request failed: %w", context.Canceled), false},
		{"deadline", context.DeadlineExceeded, false},
		{"session expired", fmt.Errorf("%w: %w", shared.ErrSessionExpired, shared.ParseAPIError(401, nil)), false},
		{"bad request", shared.ParseAPIError(400, []byte(`{"message":["name should not be empty"]}`)), false},
		{"not found", shared.ParseAPIError(404, nil), false},
		{"server error", shared.ParseAPIError(500, nil), true},
		{"refresh hit a gateway error", fmt.Errorf("%w: %w", shared.ErrRefreshFailed, shared.ParseAPIError(502, nil)), true},
		{"network", errors.New("connection reset by peer"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			c := NewClient("", nil)
			if c.BaseURL() != DefaultBaseURL {
				t.Errorf("expected default base URL, got %s", c.BaseURL())
			}
			if c.http != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
			if c.limiter != nil {
				t.Error("expected no rate limiter by default")
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			c := NewClient("http://example.com/api/", nil)
			if c.BaseURL() != "http://example.com/api" {
				t.Errorf("got %s", c.BaseURL())
			}
		})

		t.Run("Rate Limit", func(t *testing.T) {
			c := NewClient("http://example.com", nil, WithRateLimit(5, 0))
			if c.limiter == nil {
				t.Fatal("expected rate limiter")
			}
			if c.limiter.Burst() != 1 {
				t.Errorf("expected burst 1, got %d", c.limiter.Burst())
			}

			c = NewClient("http://example.com", nil, WithRateLimit(0, 10))
			if c.limiter != nil {
				t.Error("expected zero rate to disable the limiter")
			}
		})
	})

	t.Run("Headers", func(t *testing.T) {
		var (
			mu  sync.Mutex
			ids []string
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			ids = append(ids, r.Header.Get(RequestIDHeader))
			n := len(ids)
			mu.Unlock()

			if r.Header.Get("User-Agent") != "ztx-test" {
				t.Errorf("expected User-Agent ztx-test, got %q", r.Header.Get("User-Agent"))
			}
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("expected Accept application/json, got %q", r.Header.Get("Accept"))
			}
			if n == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, nil, WithRetryPolicy(fastRetry), WithUserAgent("ztx-test"))
		if err := c.do(context.Background(), http.MethodGet, "/x", nil, nil, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if len(ids) != 2 {
			t.Fatalf("expected 2 attempts, got %d", len(ids))
		}
		if ids[0] == "" || ids[0] == ids[1] {
			t.Errorf("expected a fresh request id per attempt, got %q and %q", ids[0], ids[1])
		}
	})

	t.Run("Retries", func(t *testing.T) {
		t.Run("Query Until Success", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if hits.Add(1) < 3 {
					w.WriteHeader(http.StatusBadGateway)
					return
				}
				w.Write([]byte(`{"message":"ok"}`))
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, WithRetryPolicy(fastRetry))
			var out struct{ Message string }
			if err := c.do(context.Background(), http.MethodGet, "/", nil, nil, &out); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if hits.Load() != 3 {
				t.Errorf("expected 3 attempts, got %d", hits.Load())
			}
			if out.Message != "ok" {
				t.Errorf("expected decoded message, got %q", out.Message)
			}
		})

		t.Run("Query Gives Up", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, WithRetryPolicy(fastRetry))
			err := c.do(context.Background(), http.MethodGet, "/", nil, nil, nil)

			var apiErr *shared.APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
				t.Fatalf("expected 500 APIError, got %v", err)
			}
			if hits.Load() != 4 {
				t.Errorf("expected 1 attempt + 3 retries, got %d", hits.Load())
			}
		})

		t.Run("Mutation Once", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, WithRetryPolicy(fastRetry))
			if err := c.do(context.Background(), http.MethodPost, "/", nil, map[string]string{"a": "b"}, nil); err == nil {
				t.Fatal("expected error")
			}
			if hits.Load() != 2 {
				t.Errorf("expected 2 attempts, got %d", hits.Load())
			}
		})

		t.Run("Not On Client Errors", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"statusCode":400,"message":["name should not be empty","name must be a string"],"error":"Bad Request"}`))
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, WithRetryPolicy(fastRetry))
			err := c.do(context.Background(), http.MethodGet, "/", nil, nil, nil)

			var apiErr *shared.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Message != "name should not be empty" || len(apiErr.Messages) != 2 {
				t.Errorf("unexpected messages %q %v", apiErr.Message, apiErr.Messages)
			}
			if hits.Load() != 1 {
				t.Errorf("expected no retry, got %d attempts", hits.Load())
			}
		})

		t.Run("Stops When Context Ends", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			slow := fastRetry
			slow.BaseDelay = time.Hour
			slow.QueryMaxDelay = time.Hour

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			c := NewClient(server.URL, nil, WithRetryPolicy(slow))
			err := c.do(ctx, http.MethodGet, "/", nil, nil, nil)
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("expected deadline exceeded, got %v", err)
			}
		})
	})

	t.Run("Query Parameters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("projectId"); got != "p 1" {
				t.Errorf("expected projectId 'p 1', got %q", got)
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, nil)
		q := url.Values{"projectId": {"p 1"}}
		if err := c.do(context.Background(), http.MethodGet, "/tasks", q, nil, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("Decode Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		c := NewClient(server.URL, nil)
		var out map[string]any
		err := c.do(context.Background(), http.MethodGet, "/", nil, nil, &out)
		if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
			t.Errorf("expected decode error, got %v", err)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		httpClient := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
		c := NewClient("http://example.com", httpClient, WithRetryPolicy(RetryPolicy{}))

		err := c.do(context.Background(), http.MethodGet, "/", nil, nil, nil)
		if err == nil || !strings.Contains(err.Error(), "request failed") {
			t.Errorf("expected request failed error, got %v", err)
		}
	})
}
