package session

import (
	"context"
	"errors"
	"testing"

	"zkbridge.service/internal/ports/device"
)

// fakeClient lets each test fail a single driver operation and counts
// disconnects.
type fakeClient struct {
	connectErr error
	usersErr   error
	attErr     error
	infoErr    error
	clearErr   error
	enableErr  error
	captureErr error

	disconnects  int
	stopCaptures int
	events       chan device.RealtimeEvent
}

func (f *fakeClient) Connect(ctx context.Context) error { return f.connectErr }

func (f *fakeClient) Disconnect(ctx context.Context) error {
	f.disconnects++
	return nil
}

func (f *fakeClient) GetUsers(ctx context.Context) ([]device.RawUser, error) {
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return []device.RawUser{{DeviceUserID: "5", Name: "John Doe"}}, nil
}

func (f *fakeClient) GetAttendances(ctx context.Context) ([]device.RawAttendanceRecord, error) {
	if f.attErr != nil {
		return nil, f.attErr
	}
	return []device.RawAttendanceRecord{{DeviceUserID: "5"}}, nil
}

func (f *fakeClient) GetInfo(ctx context.Context) (device.Info, error) {
	if f.infoErr != nil {
		return device.Info{}, f.infoErr
	}
	return device.Info{UserCounts: 1, LogCounts: 1}, nil
}

func (f *fakeClient) ClearAttendanceLog(ctx context.Context) error { return f.clearErr }
func (f *fakeClient) EnableDevice(ctx context.Context) error       { return f.enableErr }
func (f *fakeClient) DisableDevice(ctx context.Context) error      { return f.enableErr }

func (f *fakeClient) LiveCapture(ctx context.Context) (<-chan device.RealtimeEvent, error) {
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	if f.events == nil {
		f.events = make(chan device.RealtimeEvent)
	}
	return f.events, nil
}

func (f *fakeClient) StopCapture() { f.stopCaptures++ }

type fakeDialer struct {
	client *fakeClient
}

func (d *fakeDialer) Dial(endpoint device.Endpoint) device.Client { return d.client }

var testEndpoint = device.Endpoint{Host: "192.168.1.201", Port: 4370}

func TestOpenAndCloseHappyPath(t *testing.T) {
	client := &fakeClient{}
	sess, err := Open(context.Background(), &fakeDialer{client: client}, testEndpoint)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if sess.State() != StateConnected {
		t.Fatalf("expected connected state, got %v", sess.State())
	}

	sess.Close(context.Background())
	if sess.State() != StateClosed {
		t.Fatalf("expected closed state, got %v", sess.State())
	}
	if client.disconnects != 1 {
		t.Fatalf("expected exactly one disconnect, got %d", client.disconnects)
	}
}

func TestOpenConnectFailure(t *testing.T) {
	cause := errors.New("network unreachable")
	client := &fakeClient{connectErr: cause}
	sess, err := Open(context.Background(), &fakeDialer{client: client}, testEndpoint)

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not wrapped: %v", err)
	}
	if sess.State() != StateFailed {
		t.Fatalf("expected failed state, got %v", sess.State())
	}

	// Callers close unconditionally; a failed session must tolerate it.
	sess.Close(context.Background())
	sess.Close(context.Background())
	if client.disconnects != 1 {
		t.Fatalf("expected exactly one disconnect, got %d", client.disconnects)
	}
}

func TestOperationsRequireConnected(t *testing.T) {
	client := &fakeClient{}
	sess, err := Open(context.Background(), &fakeDialer{client: client}, testEndpoint)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	sess.Close(context.Background())

	if _, err := sess.Users(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if _, err := sess.Attendances(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := sess.ClearAttendanceLog(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestQueryAndCommandErrorWrapping(t *testing.T) {
	cause := errors.New("device busy")

	client := &fakeClient{usersErr: cause}
	sess, err := Open(context.Background(), &fakeDialer{client: client}, testEndpoint)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sess.Close(context.Background())

	_, err = sess.Users(context.Background())
	var queryErr *QueryError
	if !errors.As(err, &queryErr) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped QueryError, got %v", err)
	}
	// Failed operations leave the session connected; teardown is the
	// caller's defer, not a side effect of the error.
	if sess.State() != StateConnected {
		t.Fatalf("expected connected state after failed query, got %v", sess.State())
	}

	client.clearErr = cause
	err = sess.ClearAttendanceLog(context.Background())
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
}

func TestSubscribeMovesToStreaming(t *testing.T) {
	client := &fakeClient{}
	sess, err := Open(context.Background(), &fakeDialer{client: client}, testEndpoint)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := sess.Subscribe(context.Background()); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if sess.State() != StateStreaming {
		t.Fatalf("expected streaming state, got %v", sess.State())
	}

	sess.Close(context.Background())
	if client.stopCaptures != 1 {
		t.Fatalf("expected capture to be stopped during close, got %d", client.stopCaptures)
	}
	if client.disconnects != 1 {
		t.Fatalf("expected exactly one disconnect, got %d", client.disconnects)
	}
}

func TestSubscribeFailureWrapsStreamError(t *testing.T) {
	cause := errors.New("push port in use")
	client := &fakeClient{captureErr: cause}
	sess, err := Open(context.Background(), &fakeDialer{client: client}, testEndpoint)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sess.Close(context.Background())

	_, err = sess.Subscribe(context.Background())
	var streamErr *StreamError
	if !errors.As(err, &streamErr) || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped StreamError, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	client := &fakeClient{}
	sess, err := Open(context.Background(), &fakeDialer{client: client}, testEndpoint)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		sess.Close(context.Background())
	}
	if client.disconnects != 1 {
		t.Fatalf("repeated Close must disconnect once, got %d", client.disconnects)
	}
}
