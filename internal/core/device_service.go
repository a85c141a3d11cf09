package core

import (
	"context"
	"time"

	"zkbridge.service/internal/core/aggregate"
	"zkbridge.service/internal/core/session"
	"zkbridge.service/internal/core/stream"
	"zkbridge.service/internal/ports/device"
)

// AnnotatedRecord is one raw punch joined with the resolved display name,
// as served by the attendances endpoint.
type AnnotatedRecord struct {
	UserSN       int    `json:"userSn"`
	DeviceUserID string `json:"deviceUserId"`
	Username     string `json:"username"`
	RecordTime   string `json:"recordTime"`
	IP           string `json:"ip"`
	AttTime      string `json:"attTime"`
}

// DeviceService is the main application service. Every method opens its own
// session against the requested terminal, does its work, and closes the
// session before returning; failures included. No session ever outlives the
// call that created it.
type DeviceService struct {
	dialer device.Dialer
}

// NewDeviceService wires up the application service with the driver dialer.
func NewDeviceService(dialer device.Dialer) *DeviceService {
	return &DeviceService{dialer: dialer}
}

// TestConnection verifies the terminal accepts a connection, then releases
// it immediately.
func (s *DeviceService) TestConnection(ctx context.Context, endpoint device.Endpoint) error {
	sess, err := session.Open(ctx, s.dialer, endpoint)
	defer sess.Close(ctx)
	return err
}

// ListUsers fetches the terminal's user table.
func (s *DeviceService) ListUsers(ctx context.Context, endpoint device.Endpoint) ([]device.RawUser, error) {
	sess, err := session.Open(ctx, s.dialer, endpoint)
	defer sess.Close(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Users(ctx)
}

// Info fetches the terminal's counters.
func (s *DeviceService) Info(ctx context.Context, endpoint device.Endpoint) (device.Info, error) {
	sess, err := session.Open(ctx, s.dialer, endpoint)
	defer sess.Close(ctx)
	if err != nil {
		return device.Info{}, err
	}
	return sess.Info(ctx)
}

// SetEnabled enables or disables the terminal's local operation.
func (s *DeviceService) SetEnabled(ctx context.Context, endpoint device.Endpoint, enabled bool) error {
	sess, err := session.Open(ctx, s.dialer, endpoint)
	defer sess.Close(ctx)
	if err != nil {
		return err
	}
	return sess.SetEnabled(ctx, enabled)
}

// ClearAttendanceLog wipes the terminal's attendance log.
func (s *DeviceService) ClearAttendanceLog(ctx context.Context, endpoint device.Endpoint) error {
	sess, err := session.Open(ctx, s.dialer, endpoint)
	defer sess.Close(ctx)
	if err != nil {
		return err
	}
	return sess.ClearAttendanceLog(ctx)
}

// Attendances fetches the attendance log and the user table in one session,
// filters by the optional range, and joins in display names. Record order is
// whatever the device returned.
func (s *DeviceService) Attendances(ctx context.Context, endpoint device.Endpoint, rng aggregate.Range) ([]AnnotatedRecord, error) {
	records, index, err := s.fetchFiltered(ctx, endpoint, rng)
	if err != nil {
		return nil, err
	}

	out := make([]AnnotatedRecord, 0, len(records))
	for _, rec := range records {
		iso, _ := aggregate.FormatInstant(rec.RecordTime, "")
		out = append(out, AnnotatedRecord{
			UserSN:       rec.UserSN,
			DeviceUserID: rec.DeviceUserID,
			Username:     aggregate.ResolveName(index, rec.DeviceUserID),
			RecordTime:   iso,
			IP:           rec.IP,
			AttTime:      iso,
		})
	}
	return out, nil
}

// UniqueAttendances derives per-user, per-day check-in/check-out summaries
// from the filtered log.
func (s *DeviceService) UniqueAttendances(ctx context.Context, endpoint device.Endpoint, rng aggregate.Range) ([]aggregate.DailySummary, error) {
	records, index, err := s.fetchFiltered(ctx, endpoint, rng)
	if err != nil {
		return nil, err
	}
	return aggregate.Summarize(records, index), nil
}

// AttendanceStats computes the summary counters over the filtered log.
func (s *DeviceService) AttendanceStats(ctx context.Context, endpoint device.Endpoint, rng aggregate.Range) (aggregate.Stats, error) {
	sess, err := session.Open(ctx, s.dialer, endpoint)
	defer sess.Close(ctx)
	if err != nil {
		return aggregate.Stats{}, err
	}

	records, err := sess.Attendances(ctx)
	if err != nil {
		return aggregate.Stats{}, err
	}
	return aggregate.ComputeStats(aggregate.FilterByRange(records, rng)), nil
}

// StreamRealtime holds a streaming session open and forwards every push
// event to onFrame until the context is cancelled or the stream fails. The
// session is torn down before StreamRealtime returns.
func (s *DeviceService) StreamRealtime(ctx context.Context, endpoint device.Endpoint, onFrame stream.FrameFunc) error {
	sess, err := session.Open(ctx, s.dialer, endpoint)
	if err != nil {
		sess.Close(ctx)
		return err
	}
	return stream.Run(ctx, sess, onFrame)
}

// fetchFiltered runs the common read path: one session, both tables, range
// filter applied. The session is closed before returning.
func (s *DeviceService) fetchFiltered(ctx context.Context, endpoint device.Endpoint, rng aggregate.Range) ([]device.RawAttendanceRecord, map[string]string, error) {
	sess, err := session.Open(ctx, s.dialer, endpoint)
	defer sess.Close(ctx)
	if err != nil {
		return nil, nil, err
	}

	users, err := sess.Users(ctx)
	if err != nil {
		return nil, nil, err
	}
	records, err := sess.Attendances(ctx)
	if err != nil {
		return nil, nil, err
	}

	return aggregate.FilterByRange(records, rng), aggregate.BuildUserIndex(users), nil
}

// Timeout returns a context bounded by the endpoint's response timeout, for
// the short request/response operations. Streaming paths do not use it.
func Timeout(ctx context.Context, endpoint device.Endpoint) (context.Context, context.CancelFunc) {
	if endpoint.TimeoutMs <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(endpoint.TimeoutMs)*time.Millisecond)
}
