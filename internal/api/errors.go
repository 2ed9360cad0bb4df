// ABOUTME: Error types returned by the admin service client
// ABOUTME: APIError carries the HTTP status and server detail; ErrNetwork marks transport failures

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNetwork is wrapped by every error where no response was received.
var ErrNetwork = errors.New("network error")

// APIError is a non-2xx response from the admin service.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// ErrorDetail returns the server-supplied message, or "".
func (e *APIError) ErrorDetail() string {
	return e.Detail
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// parseDetail extracts the "detail" field of an error body. FastAPI sends either a
// string or a list of validation errors; for the list the first "msg" is used.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}
