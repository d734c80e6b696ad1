// Package shared centralizes JSON response and domain error translation for
// all HTTP handlers, keeping error envelopes consistent across domains.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "fatepack/pkg/domain-errors"
)

// Exposed detail policy. In development the underlying error string is
// included; in production only the caller-safe message leaves the process.
var exposeDetail bool

// SetExposeDetail configures whether raw error detail is included in error
// responses. Call once during wiring.
func SetExposeDetail(on bool) {
	exposeDetail = on
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError maps a domain error to an HTTP response.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
	}
	if exposeDetail && err != nil {
		body.Detail = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes a JSON payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// DecodeJSON decodes a request body, rejecting unknown fields so typos in
// client payloads fail loudly instead of being silently dropped.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
