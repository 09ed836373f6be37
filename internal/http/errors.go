// Package httpapi exposes the catalog over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// jsonError is the body of every non-2xx response.
type jsonError struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
// The request id set by WithRequestID is echoed in the body.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, jsonError{
		Error:     message,
		Details:   details,
		RequestID: w.Header().Get(RequestIDHeader),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
