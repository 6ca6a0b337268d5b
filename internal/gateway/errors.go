package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	if text := http.StatusText(e.Status); text != "" {
		return strings.ToLower(text)
	}
	return "request failed"
}

func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Message: extractErrorMessage(body), Body: body}
}

// extractErrorMessage reads problem+json detail, then title, then a plain
// error field.
func extractErrorMessage(raw []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return strings.TrimSpace(string(raw))
	}
	for _, key := range []string{"detail", "title", "error"} {
		if value, ok := obj[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
