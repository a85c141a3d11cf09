package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type fakeSender struct {
	queueURL string
	body     []byte
	err      error
}

func (f *fakeSender) SendMessage(ctx context.Context, queueURL string, body []byte) error {
	f.queueURL = queueURL
	f.body = body
	return f.err
}

func TestPublishPunch(t *testing.T) {
	sender := &fakeSender{}
	producer := NewProducer(sender, "http://localhost:4566/000000000000/punch-events")

	event := PunchEvent{
		DeviceUserID: "5",
		AttTime:      time.Date(2025, 6, 7, 10, 21, 2, 0, time.UTC),
		VerifyMethod: 1,
		InOutMode:    0,
		DeviceHost:   "192.168.1.201",
		OccurredAt:   time.Date(2025, 6, 7, 10, 21, 3, 0, time.UTC),
	}
	if err := producer.PublishPunch(context.Background(), event); err != nil {
		t.Fatalf("PublishPunch failed: %v", err)
	}

	if sender.queueURL != "http://localhost:4566/000000000000/punch-events" {
		t.Fatalf("wrong queue url: %q", sender.queueURL)
	}

	var got PunchEvent
	if err := json.Unmarshal(sender.body, &got); err != nil {
		t.Fatalf("message body is not valid JSON: %v", err)
	}
	if got.DeviceUserID != "5" || got.DeviceHost != "192.168.1.201" {
		t.Fatalf("wrong payload: %+v", got)
	}
	if !got.AttTime.Equal(event.AttTime) {
		t.Fatalf("wrong attTime: %v", got.AttTime)
	}
}

func TestPublishPunchPropagatesSendFailure(t *testing.T) {
	cause := errors.New("queue unreachable")
	producer := NewProducer(&fakeSender{err: cause}, "q")

	err := producer.PublishPunch(context.Background(), PunchEvent{DeviceUserID: "5"})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not wrapped: %v", err)
	}
}
