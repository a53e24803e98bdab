package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyPassword is returned by UpdatePassword when no password is given.
var ErrEmptyPassword = errors.New("password cannot be empty")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// errorMessage extracts a readable message from an error body. The user
// service answers with {"error": ...}, {"detail": ...}, a bare list of
// messages, or per-field lists.
func errorMessage(body []byte) string {
	var obj struct {
		Error  string `json:"error"`
		Detail any    `json:"detail"`
	}
	if json.Unmarshal(body, &obj) == nil {
		if obj.Error != "" {
			return obj.Error
		}
		if msg := joinMessages(obj.Detail); msg != "" {
			return msg
		}
	}

	var list []string
	if json.Unmarshal(body, &list) == nil && len(list) > 0 {
		return strings.Join(list, "; ")
	}

	var fields map[string][]string
	if json.Unmarshal(body, &fields) == nil && len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+strings.Join(fields[k], " "))
		}
		return strings.Join(parts, "; ")
	}

	return string(body)
}

func joinMessages(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case []any:
		parts := make([]string, 0, len(d))
		for _, p := range d {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
