package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/ztx/internal/shared"
)

// DefaultRefreshPath is the backend route exchanging the refresh cookie for an access token.
const DefaultRefreshPath = "/auth/refresh"

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

// HTTPRefresher calls the refresh endpoint of the backend.
//
// Its client must not route through [Transport], and must share the cookie jar of the API client so the
// refresh token cookie is sent.
type HTTPRefresher struct {
	url       string
	client    *http.Client
	userAgent string
}

// NewHTTPRefresher creates a refresher posting to baseURL+path.
func NewHTTPRefresher(baseURL, path string, client *http.Client) *HTTPRefresher {
	if path == "" {
		path = DefaultRefreshPath
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRefresher{
		url:    strings.TrimRight(baseURL, "/") + path,
		client: client,
	}
}

// SetUserAgent sets the User-Agent header sent with refresh calls.
func (r *HTTPRefresher) SetUserAgent(ua string) {
	r.userAgent = ua
}

// Refresh implements [Refresher]. Error responses are returned as [*shared.APIError].
func (r *HTTPRefresher) Refresh(ctx context.Context) (*Credentials, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, shared.ParseAPIError(resp.StatusCode, body)
	}

	var payload refreshResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid refresh response: %w", err)
	}

	return &Credentials{AccessToken: payload.AccessToken, UserID: payload.User.ID}, nil
}
