package device

import (
	"context"
	"fmt"
	"time"
)

// Endpoint identifies one physical terminal. Immutable once a session is
// created; independent sessions may address different endpoints concurrently.
type Endpoint struct {
	Host      string
	Port      int
	TimeoutMs int
	// InPort is the local UDP port the terminal pushes realtime events to.
	InPort int
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// RawUser is a user record exactly as the terminal reports it.
type RawUser struct {
	UID          int    `json:"uid"`
	DeviceUserID string `json:"userid"`
	Name         string `json:"name"`
	Role         int    `json:"role"`
	CardNo       int64  `json:"cardno"`
}

// RawAttendanceRecord is one physical punch. The terminal does not guarantee
// any ordering of the returned log.
type RawAttendanceRecord struct {
	UserSN       int       `json:"userSn"`
	DeviceUserID string    `json:"deviceUserId"`
	RecordTime   time.Time `json:"recordTime"`
	IP           string    `json:"ip"`
}

// Info holds the terminal's capacity counters.
type Info struct {
	UserCounts  int `json:"userCounts"`
	LogCounts   int `json:"logCounts"`
	LogCapacity int `json:"logCapacity"`
}

// RealtimeEvent is one device-initiated push notification of a new punch.
type RealtimeEvent struct {
	DeviceUserID string    `json:"userId"`
	AttTime      time.Time `json:"attTime"`
	VerifyMethod int       `json:"verifyMethod"`
	InOutMode    int       `json:"inOutMode"`
}

// Client is the capability contract the terminal driver must provide. The
// wire protocol behind it is not this service's concern.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	GetUsers(ctx context.Context) ([]RawUser, error)
	GetAttendances(ctx context.Context) ([]RawAttendanceRecord, error)
	GetInfo(ctx context.Context) (Info, error)
	ClearAttendanceLog(ctx context.Context) error
	EnableDevice(ctx context.Context) error
	DisableDevice(ctx context.Context) error
	// LiveCapture switches the connection into streaming mode. Events arrive
	// on the returned channel until StopCapture is called or the connection
	// drops, at which point the channel is closed.
	LiveCapture(ctx context.Context) (<-chan RealtimeEvent, error)
	StopCapture()
}

// Dialer builds one Client per session. Sessions are never pooled, so every
// call gets a fresh client bound to its endpoint.
type Dialer interface {
	Dial(endpoint Endpoint) Client
}
