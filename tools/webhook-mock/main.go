package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// A simple struct to capture the incoming punch event
type PunchEvent struct {
	DeviceUserID string    `json:"deviceUserId"`
	AttTime      time.Time `json:"attTime"`
	VerifyMethod int       `json:"verifyMethod"`
	InOutMode    int       `json:"inOutMode"`
	DeviceHost   string    `json:"deviceHost"`
	OccurredAt   time.Time `json:"occurredAt"`
}

func punchHandler(w http.ResponseWriter, r *http.Request) {
	var event PunchEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	log.Printf("Received punch for user %s at %s (mode %d)", event.DeviceUserID, event.AttTime.Format(time.RFC3339), event.InOutMode)
	w.WriteHeader(http.StatusOK)
}

func main() {
	http.HandleFunc("/", punchHandler)
	log.Println("Webhook mock server starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", nil))
}
