package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Operation markers. They stay stable so callers can tell which backend call
// failed without parsing messages.
const (
	OpRepMe    = "reps/me"
	OpProducts = "products"
	OpOrder    = "order"
)

var (
	ErrNotConfigured = errors.New("backend base URL is not configured")
	ErrContract      = errors.New("backend contract violation")
)

// APIError is the single error shape of every gateway call. Status is 0 when
// no HTTP response was received.
type APIError struct {
	Op     string
	Status int
	Detail string
	URL    string
	Err    error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(" failed")
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.URL != "" {
		fmt.Fprintf(&b, " @ %s", e.URL)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ClientError reports a 4xx answer.
func (e *APIError) ClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// extractDetail mirrors how FastAPI reports errors: {"detail": ...} when
// present, otherwise the JSON body itself, otherwise the raw text.
func extractDetail(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(body)
	}

	if obj, ok := payload.(map[string]any); ok {
		if detail, ok := obj["detail"]; ok && detail != nil {
			payload = detail
		}
	}
	if s, ok := payload.(string); ok {
		return s
	}

	compact, err := json.Marshal(payload)
	if err != nil {
		return string(body)
	}
	return string(compact)
}
