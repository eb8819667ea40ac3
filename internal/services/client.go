package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ztx/internal/auth"
	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is used when [NewClient] is given an empty base URL.
const DefaultBaseURL = "http://localhost:3000"

// RequestIDHeader carries a fresh id on every attempt so backend logs can be matched to client logs.
const RequestIDHeader = "X-Request-ID"

// RetryPolicy decides how often a failed call is repeated.
//
// Queries (GET) and mutations have separate budgets. Client errors (4xx) and expired sessions are never retried.
type RetryPolicy struct {
	QueryRetries     int
	MutationRetries  int
	BaseDelay        time.Duration
	QueryMaxDelay    time.Duration
	MutationMaxDelay time.Duration
}

// DefaultRetryPolicy retries queries three times and mutations once, doubling a one second delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		QueryRetries:     3,
		MutationRetries:  1,
		BaseDelay:        time.Second,
		QueryMaxDelay:    10 * time.Second,
		MutationMaxDelay: 5 * time.Second,
	}
}

// RetryPolicyFromConfig converts the [retry] section of the config file.
func RetryPolicyFromConfig(c shared.RetryConfig) RetryPolicy {
	return RetryPolicy{
		QueryRetries:     c.QueryRetries,
		MutationRetries:  c.MutationRetries,
		BaseDelay:        c.BaseDelay.Duration,
		QueryMaxDelay:    c.QueryMaxDelay.Duration,
		MutationMaxDelay: c.MutationMaxDelay.Duration,
	}
}

func isQuery(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// Retries is the number of repeats allowed for method.
func (p RetryPolicy) Retries(method string) int {
	if isQuery(method) {
		return p.QueryRetries
	}
	return p.MutationRetries
}

// Delay is the pause before repeat number attempt (0 based): min(base * 2^attempt, max).
// Without a max the doubling stops before it overflows.
func (p RetryPolicy) Delay(method string, attempt int) time.Duration {
	limit := p.MutationMaxDelay
	if isQuery(method) {
		limit = p.QueryMaxDelay
	}

	d := p.BaseDelay
	for i := 0; i < attempt && (limit <= 0 || d < limit) && d <= math.MaxInt64/2; i++ {
		d *= 2
	}
	if limit > 0 && d > limit {
		d = limit
	}
	return d
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, shared.ErrSessionExpired) || errors.Is(err, shared.ErrInvalidInput) {
		return false
	}

	var apiErr *shared.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// Client talks to the task manager REST backend.
//
// Authorization and token refresh happen in the [http.Client] transport (see [auth.Transport]); Client adds JSON
// encoding, retries, rate limiting and request ids on top.
type Client struct {
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	retry     RetryPolicy
	userAgent string
	logger    *log.Logger
	session   auth.TokenStore

	Auth       *AuthService
	Projects   *ProjectService
	Categories *CategoryService
	Markers    *MarkerService
	Tasks      *TaskService
	Statistics *StatisticService
}

// Option configures a [Client].
type Option func(*Client)

// WithRateLimit caps outgoing requests at rps per second. Zero or less disables the limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSession lets [AuthService] save the credentials returned by login and register, and clear them on logout.
func WithSession(s auth.TokenStore) Option {
	return func(c *Client) { c.session = s }
}

// NewClient creates a client for the backend at baseURL. A nil httpClient means [http.DefaultClient].
func NewClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		retry:     DefaultRetryPolicy(),
		userAgent: "ztx",
		logger:    shared.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{c: c}
	c.Projects = &ProjectService{resource[models.Project, models.ProjectInput]{c: c, path: "/projects"}}
	c.Categories = &CategoryService{resource[models.Category, models.CategoryInput]{c: c, path: "/categories"}}
	c.Markers = &MarkerService{resource[models.Marker, models.MarkerInput]{c: c, path: "/markers"}}
	c.Tasks = &TaskService{c: c}
	c.Statistics = &StatisticService{c: c}
	return c
}

// BaseURL returns the backend address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends a JSON request and decodes the JSON response into out, retrying per the client's [RetryPolicy].
//
// Non-2xx responses become [*shared.APIError]. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = data
	}

	retries := c.retry.Retries(method)
	for attempt := 0; ; attempt++ {
		data, err := c.send(ctx, method, path, query, payload)
		if err == nil {
			if out == nil || len(bytes.TrimSpace(data)) == 0 {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}

		if attempt >= retries || !Retryable(err) {
			return err
		}

		delay := c.retry.Delay(method, attempt)
		c.logger.Warn("request failed, retrying", "method", method, "path", path, "attempt", attempt+1, "delay", delay, "err", err)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// send performs one attempt and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reader io.Reader = http.NoBody
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, shared.GenerateID())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"id", req.Header.Get(RequestIDHeader), "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, shared.ParseAPIError(resp.StatusCode, data)
	}
	return data, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
