package shared

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrSessionExpired   = fmt.Errorf("session expired")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("resource not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// APIError is a non-2xx response from the backend.
//
// The backend reports failures as {"statusCode": 401, "message": "jwt expired"} where message may also be a list of
// validation messages. Message always holds the first one.
type APIError struct {
	StatusCode int
	Message    string
	Messages   []string
	Kind       string // "error" field of the body, e.g. "Unauthorized"
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", ErrAPIRequest, e.StatusCode, e.Message)
}

// Is lets callers match any APIError with errors.Is(err, ErrAPIRequest), and 404s with ErrNotFound.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAPIRequest:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

type errorBody struct {
	Message messageList `json:"message"`
	Error   string      `json:"error"`
}

// messageList accepts either a JSON string or a JSON array of strings.
type messageList []string

func (m *messageList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = messageList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = many
	return nil
}

// ParseAPIError builds an [APIError] from a status code and raw response body.
//
// Bodies that are not JSON, or carry no message, fall back to a generic "request failed" message.
func ParseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Messages = eb.Message
		apiErr.Kind = eb.Error
	}

	if len(apiErr.Messages) > 0 && apiErr.Messages[0] != "" {
		apiErr.Message = apiErr.Messages[0]
	} else if text := strings.TrimSpace(string(body)); text != "" && !json.Valid(body) {
		apiErr.Message = text
	} else {
		apiErr.Message = fmt.Sprintf("request failed with status code %d", status)
	}

	return apiErr
}
