package messaging

import "time"

// PunchEvent is the JSON payload republished for every realtime punch the
// terminal pushes.
type PunchEvent struct {
	DeviceUserID string    `json:"deviceUserId"`
	AttTime      time.Time `json:"attTime"`
	VerifyMethod int       `json:"verifyMethod"`
	InOutMode    int       `json:"inOutMode"`
	DeviceHost   string    `json:"deviceHost"`
	OccurredAt   time.Time `json:"occurredAt"`
}
