// Package session owns the lifecycle of one terminal connection. A session
// is created per API call, is never pooled, and is always closed by the time
// the call returns. The terminal accepts a single concurrent connection, so
// a leaked session starves every request after it.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"zkbridge.service/internal/ports/device"
)

// State is the session lifecycle position.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateStreaming
	StateClosing
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session wraps one device.Client with exclusive ownership and uniform error
// translation. Close may be called from a different goroutine than the one
// running operations (the SSE path does this), so state is mutex-guarded.
type Session struct {
	id       uuid.UUID
	client   device.Client
	endpoint device.Endpoint

	mu    sync.Mutex
	state State
}

// Open dials and connects a fresh session. On transport failure the session
// is left in the failed state and a ConnectionError is returned; the caller
// still owns the session and may (idempotently) Close it.
func Open(ctx context.Context, dialer device.Dialer, endpoint device.Endpoint) (*Session, error) {
	s := &Session{
		id:       uuid.New(),
		client:   dialer.Dial(endpoint),
		endpoint: endpoint,
		state:    StateIdle,
	}

	ctx, span := s.startSpan(ctx, "device.connect")
	defer span.End()

	s.mu.Lock()
	s.state = StateConnecting
	s.mu.Unlock()

	if err := s.client.Connect(ctx); err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.mu.Unlock()
		return s, &ConnectionError{Endpoint: endpoint, Err: err}
	}

	s.mu.Lock()
	s.state = StateConnected
	s.mu.Unlock()

	log.Ctx(ctx).Debug().
		Str("session_id", s.id.String()).
		Str("endpoint", endpoint.String()).
		Msg("Connected to terminal")
	return s, nil
}

// ID is the correlation id carried in logs and spans.
func (s *Session) ID() uuid.UUID { return s.id }

// Endpoint returns the terminal this session is bound to.
func (s *Session) Endpoint() device.Endpoint { return s.endpoint }

// State reports the current lifecycle position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Users reads the terminal's user table.
func (s *Session) Users(ctx context.Context) ([]device.RawUser, error) {
	ctx, span := s.startSpan(ctx, "device.get_users")
	defer span.End()

	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	users, err := s.client.GetUsers(ctx)
	if err != nil {
		return nil, &QueryError{Op: "get_users", Err: err}
	}
	return users, nil
}

// Attendances reads the full attendance log. Ordering is whatever the
// terminal returned.
func (s *Session) Attendances(ctx context.Context) ([]device.RawAttendanceRecord, error) {
	ctx, span := s.startSpan(ctx, "device.get_attendances")
	defer span.End()

	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	records, err := s.client.GetAttendances(ctx)
	if err != nil {
		return nil, &QueryError{Op: "get_attendances", Err: err}
	}
	return records, nil
}

// Info reads the terminal's counters.
func (s *Session) Info(ctx context.Context) (device.Info, error) {
	ctx, span := s.startSpan(ctx, "device.get_info")
	defer span.End()

	if err := s.requireConnected(); err != nil {
		return device.Info{}, err
	}
	info, err := s.client.GetInfo(ctx)
	if err != nil {
		return device.Info{}, &QueryError{Op: "get_info", Err: err}
	}
	return info, nil
}

// ClearAttendanceLog wipes the terminal's attendance log. Irreversible; any
// confirmation step is the caller's concern.
func (s *Session) ClearAttendanceLog(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "device.clear_attendance_log")
	defer span.End()

	if err := s.requireConnected(); err != nil {
		return err
	}
	if err := s.client.ClearAttendanceLog(ctx); err != nil {
		return &CommandError{Op: "clear_attendance_log", Err: err}
	}
	return nil
}

// SetEnabled toggles the terminal's local operation.
func (s *Session) SetEnabled(ctx context.Context, enabled bool) error {
	ctx, span := s.startSpan(ctx, "device.set_enabled")
	defer span.End()
	span.SetAttributes(attribute.Bool("device.enabled", enabled))

	if err := s.requireConnected(); err != nil {
		return err
	}

	var err error
	if enabled {
		err = s.client.EnableDevice(ctx)
	} else {
		err = s.client.DisableDevice(ctx)
	}
	if err != nil {
		return &CommandError{Op: "set_enabled", Err: err}
	}
	return nil
}

// Subscribe switches the session into streaming mode and returns the push
// event channel. The channel closes when the capture stops or the connection
// drops; the session stays open until Close.
func (s *Session) Subscribe(ctx context.Context) (<-chan device.RealtimeEvent, error) {
	ctx, span := s.startSpan(ctx, "device.live_capture")
	defer span.End()

	if err := s.requireConnected(); err != nil {
		return nil, err
	}
	events, err := s.client.LiveCapture(ctx)
	if err != nil {
		return nil, &StreamError{Err: err}
	}

	s.mu.Lock()
	s.state = StateStreaming
	s.mu.Unlock()
	return events, nil
}

// Close releases the connection. It is idempotent and never returns an
// error: teardown runs on failure-handling paths where surfacing a secondary
// failure would mask the primary one, so driver errors are only logged.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	switch s.state {
	case StateClosed, StateClosing, StateIdle:
		s.mu.Unlock()
		return
	case StateStreaming:
		s.client.StopCapture()
	}
	s.state = StateClosing
	s.mu.Unlock()

	if err := s.client.Disconnect(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("session_id", s.id.String()).
			Str("endpoint", s.endpoint.String()).
			Msg("Error disconnecting from terminal")
	}

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	log.Ctx(ctx).Debug().
		Str("session_id", s.id.String()).
		Msg("Session closed")
}

func (s *Session) requireConnected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected && s.state != StateStreaming {
		return ErrNotConnected
	}
	return nil
}

func (s *Session) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	tracer := otel.Tracer("device-session")
	ctx, span := tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("app.sessionId", s.id.String()),
			attribute.String("net.peer.name", s.endpoint.Host),
			attribute.Int("net.peer.port", s.endpoint.Port),
		),
	)
	return ctx, span
}
