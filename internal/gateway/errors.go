package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// genericFailure is shown when the backend supplies no message of its own.
const genericFailure = "Request failed. Please try again."

// APIError is a non-2xx backend response mapped into the client's error
// taxonomy: 401 authorization failure, 422 validation failure, 409 conflict,
// anything else a generic failure.
type APIError struct {
	StatusCode int
	Message    string
	// FieldErrors carries a 422 payload's per-field messages verbatim.
	FieldErrors map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Unauthorized reports an authorization failure. Callers must clear the
// stored session and force re-authentication.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Validation reports a field-validation failure.
func (e *APIError) Validation() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}

// Conflict reports a uniqueness conflict such as a duplicate item code.
func (e *APIError) Conflict() bool {
	return e.StatusCode == http.StatusConflict
}

// FieldMessages flattens the field errors into a stable, renderable list.
func (e *APIError) FieldMessages() []string {
	if len(e.FieldErrors) == 0 {
		return nil
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var msgs []string
	for _, f := range fields {
		msgs = append(msgs, e.FieldErrors[f]...)
	}
	return msgs
}

// UserMessage is the text to surface in a notification.
func (e *APIError) UserMessage() string {
	if msgs := e.FieldMessages(); len(msgs) > 0 {
		return strings.Join(msgs, "\n")
	}
	if e.Message != "" {
		return e.Message
	}
	return genericFailure
}

// errorBody is the shape the backend uses for failures. Validation payloads
// put the field map under "error"; some endpoints use "errors".
type errorBody struct {
	Message string              `json:"message"`
	Error   map[string][]string `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

// parseAPIError converts a non-2xx response body into an APIError. Bodies
// that are not JSON still produce a usable error.
func parseAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Message = body.Message
		apiErr.FieldErrors = body.Error
		if len(apiErr.FieldErrors) == 0 {
			apiErr.FieldErrors = body.Errors
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
