package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/sonar/internal/shared"
)

// APIError is a non-2xx response from the song discovery API.
type APIError struct {
	StatusCode int
	Detail     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("song API error (status %d) %s: %s", e.StatusCode, e.Path, e.Detail)
	}
	return fmt.Sprintf("song API error (status %d) %s", e.StatusCode, e.Path)
}

// Is lets callers match API errors against the shared sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case shared.ErrServiceUnavailable:
		return e.StatusCode == http.StatusServiceUnavailable || e.StatusCode == http.StatusBadGateway
	}
	return false
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an [*APIError].
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// newAPIError decodes a FastAPI error body. Detail may be a string or a validation error list.
func newAPIError(status int, path string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Path: path}

	var errResp struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil || len(errResp.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(errResp.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(errResp.Detail, &items); err == nil && len(items) > 0 {
		apiErr.Detail = items[0].Msg
	}
	return apiErr
}
