// Package handlers implements the HTTP API surface of rooftag-engine.
package handlers

import (
	"encoding/json"
	"net/http"
)

// apiError is the body shape of every non-2xx response: a stable machine
// code plus a human-readable message.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respond encodes v as the JSON response body.
func respond(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) error {
	return respond(w, status, apiError{Error: code, Message: message})
}
