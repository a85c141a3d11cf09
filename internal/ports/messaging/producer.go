package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes punch events through any MessageSender.
type Producer struct {
	sender        MessageSender
	punchQueueURL string
}

func NewProducer(sender MessageSender, punchQueueURL string) *Producer {
	return &Producer{
		sender:        sender,
		punchQueueURL: punchQueueURL,
	}
}

func (p *Producer) PublishPunch(ctx context.Context, event PunchEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal punch event: %w", err)
	}

	// Enrich the current span with the device user id if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && event.DeviceUserID != "" {
		span.SetAttributes(attribute.String("app.deviceUserId", event.DeviceUserID))
	}

	if err := p.sender.SendMessage(ctx, p.punchQueueURL, b); err != nil {
		return fmt.Errorf("failed to send punch event: %w", err)
	}
	return nil
}
