// Package stream bridges the terminal's push subscription to a consumer
// callback. One bridge run owns one streaming session for its whole life.
package stream

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"zkbridge.service/internal/core/session"
	"zkbridge.service/internal/ports/device"
)

// ErrCaptureClosed means the device side ended the push subscription, most
// often because the connection dropped.
var ErrCaptureClosed = errors.New("realtime capture closed by device")

// Frame is one outbound realtime event. Consumers decide how to render the
// timestamp for their wire format.
type Frame struct {
	DeviceUserID string
	AttTime      time.Time
	VerifyMethod int
	InOutMode    int
}

// FrameFunc receives frames in arrival order. Returning an error detaches
// the consumer and ends the run.
type FrameFunc func(Frame) error

// Run subscribes the session to the terminal's push channel and forwards
// every event to onFrame, one frame per push, in arrival order. There is no
// buffering, coalescing or dropping here; a slow consumer queues at the
// transport boundary. Run returns when the context is cancelled (consumer
// detached), the event channel closes (connection dropped), or onFrame
// fails. On every return path the session is closed exactly once.
func Run(ctx context.Context, sess *session.Session, onFrame FrameFunc) error {
	defer sess.Close(ctx)

	events, err := sess.Subscribe(ctx)
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("session_id", sess.ID().String()).
		Str("endpoint", sess.Endpoint().String()).
		Msg("Realtime capture started")

	for {
		select {
		case <-ctx.Done():
			log.Ctx(ctx).Info().
				Str("session_id", sess.ID().String()).
				Msg("Realtime consumer detached")
			return nil
		case ev, ok := <-events:
			if !ok {
				log.Ctx(ctx).Warn().
					Str("session_id", sess.ID().String()).
					Msg("Realtime capture channel closed by device")
				return ErrCaptureClosed
			}
			if err := onFrame(newFrame(ev)); err != nil {
				return err
			}
		}
	}
}

func newFrame(ev device.RealtimeEvent) Frame {
	return Frame{
		DeviceUserID: ev.DeviceUserID,
		AttTime:      ev.AttTime,
		VerifyMethod: ev.VerifyMethod,
		InOutMode:    ev.InOutMode,
	}
}
