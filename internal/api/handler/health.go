package handler

import (
	"encoding/json"
	"net/http"
	"time"
)

// Health reports liveness. No device round-trip happens here; the gateway
// being up says nothing about the terminal being reachable.
func Health(w http.ResponseWriter, r *http.Request, startedAt time.Time) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(startedAt).Seconds(),
	})
}
