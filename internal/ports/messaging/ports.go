package messaging

import (
	"context"
)

// PunchProducer defines the output port for republishing punch events.
type PunchProducer interface {
	PublishPunch(ctx context.Context, event PunchEvent) error
}

// MessageSender defines the interface for sending raw messages to a
// messaging system.
type MessageSender interface {
	SendMessage(ctx context.Context, destination string, body []byte) error
}
