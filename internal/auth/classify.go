package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/desertthunder/ztx/internal/shared"
)

const (
	msgJWTExpired        = "jwt expired"
	msgJWTMustBeProvided = "jwt must be provided"
	msgRefreshNotPassed  = "Refresh token not passed"
	msgInvalidRefresh    = "Invalid refresh token"
	msgInvalidOrExpired  = "Invalid or expired token"
)

// IsRefreshable reports whether an error response means the access token is missing or stale.
//
// Only the first message of a list-valued "message" field is considered.
func IsRefreshable(apiErr *shared.APIError) bool {
	if apiErr == nil {
		return false
	}
	if apiErr.StatusCode == http.StatusUnauthorized {
		return true
	}
	return apiErr.Message == msgJWTExpired || apiErr.Message == msgJWTMustBeProvided
}

// IsCritical reports whether a refresh failure means the refresh token itself is gone.
func IsCritical(err error) bool {
	if err == nil {
		return false
	}
	msg := errorMessage(err)
	switch msg {
	case msgJWTExpired, msgRefreshNotPassed, msgInvalidRefresh:
		return true
	}
	return strings.Contains(msg, msgInvalidOrExpired)
}

// errorMessage is the server message of an [shared.APIError], or the error text for anything else.
func errorMessage(err error) string {
	var apiErr *shared.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
