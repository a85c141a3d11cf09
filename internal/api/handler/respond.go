package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"zkbridge.service/internal/core/session"
)

// The JSON envelope matches what existing consumers of the legacy gateway
// already parse: {"success":true,"data":...,"meta":...} on success and
// {"success":false,"error":{"message","statusCode"}} on failure.

type errorBody struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Meta    any        `json:"meta,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
	}
}

func writeData(w http.ResponseWriter, data any, meta any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Meta: meta})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: &errorBody{
		Message:    message,
		StatusCode: status,
	}})
}

// writeDeviceError maps the session error taxonomy onto status codes. The
// terminal being unreachable or refusing an operation is an upstream
// failure, not a gateway bug.
func writeDeviceError(w http.ResponseWriter, err error) {
	var (
		connErr   *session.ConnectionError
		queryErr  *session.QueryError
		cmdErr    *session.CommandError
		streamErr *session.StreamError
	)
	switch {
	case errors.As(err, &connErr),
		errors.As(err, &queryErr),
		errors.As(err, &cmdErr),
		errors.As(err, &streamErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// NotFound is the catch-all for unknown routes, keeping the error envelope
// uniform.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Resource not found: "+r.Method+" "+r.URL.Path)
}
