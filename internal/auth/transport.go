package auth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/ztx/internal/shared"
)

type (
	retryKey     struct{}
	noRefreshKey struct{}
)

// withRetry marks ctx as belonging to a replay sent with token.
func withRetry(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, retryKey{}, token)
}

// IsRetry reports whether ctx belongs to a request replayed after a refresh.
func IsRetry(ctx context.Context) bool {
	_, ok := ctx.Value(retryKey{}).(string)
	return ok
}

// NoRefresh marks ctx so error responses of its requests are returned without a refresh attempt.
//
// Used for login and registration, where a 401 means bad credentials rather than a stale token.
func NoRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRefreshKey{}, true)
}

func refreshAllowed(ctx context.Context) bool {
	skip, _ := ctx.Value(noRefreshKey{}).(bool)
	return !skip && !IsRetry(ctx)
}

func retryToken(ctx context.Context) string {
	token, _ := ctx.Value(retryKey{}).(string)
	return token
}

// Transport authorizes requests and recovers from expired access tokens.
//
// Responses below 400 and transport errors are returned untouched. Error responses keep a readable body.
type Transport struct {
	Coordinator *Coordinator

	// Base sends the requests. [http.DefaultTransport] when nil.
	Base http.RoundTripper
}

// NewTransport wraps base with the refresh protocol of c.
func NewTransport(c *Coordinator, base http.RoundTripper) *Transport {
	return &Transport{Coordinator: c, Base: base}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base().RoundTrip(t.Coordinator.Authorize(req))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest || !refreshAllowed(req.Context()) {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read error response: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if !IsRefreshable(shared.ParseAPIError(resp.StatusCode, body)) {
		return resp, nil
	}

	creds, err := t.Coordinator.Refresh(req.Context())
	if err != nil {
		return nil, err
	}

	// The session is fresh again, but a consumed body cannot be sent twice.
	if !rewindable(req) {
		t.Coordinator.logger.Debug("request body cannot be replayed", "method", req.Method, "url", req.URL.Redacted())
		return resp, nil
	}

	retry, err := replay(req, creds.AccessToken)
	if err != nil {
		return nil, err
	}
	return t.RoundTrip(retry)
}

func rewindable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

// replay clones req with a fresh body and the retry marker.
func replay(req *http.Request, token string) (*http.Request, error) {
	out := req.Clone(withRetry(req.Context(), token))
	if req.Body != nil && req.Body != http.NoBody {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		out.Body = body
	}
	return out, nil
}
