package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"orcamento/internal/core"
)

// APIError is a non-2xx response the server described in its error body.
// It unwraps to the matching core sentinel, so callers classify it with
// errors.Is(err, core.ErrNotFound) and friends.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Type, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Type {
	case "not_found_error":
		return core.ErrNotFound
	case "conflict_error":
		return core.ErrOriginNotAllowed
	case "store_unavailable":
		return core.ErrStoreUnavailable
	}
	switch e.Status {
	case http.StatusNotFound:
		return core.ErrNotFound
	case http.StatusServiceUnavailable:
		return core.ErrStoreUnavailable
	}
	return nil
}

type errorBody struct {
	Error struct {
		Type    string            `json:"type"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// decodeError rebuilds the typed error for a failed response. Validation
// failures come back as *core.ValidationError with their field detail.
func decodeError(status int, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	if body.Error.Type == "validation_error" || (body.Error.Type == "" && status == http.StatusBadRequest) {
		ve := &core.ValidationError{}
		for field, msg := range body.Error.Fields {
			ve.Add(field, msg)
		}
		if !ve.HasErrors() {
			ve.Add("request", orText(body.Error.Message, data))
		}
		return ve
	}

	return &APIError{
		Status:  status,
		Type:    body.Error.Type,
		Message: orText(body.Error.Message, data),
	}
}

func orText(msg string, data []byte) string {
	if msg != "" {
		return msg
	}
	text := strings.TrimSpace(string(data))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		return "no response body"
	}
	return text
}
