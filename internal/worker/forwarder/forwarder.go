// Package forwarder keeps a long-lived realtime subscription against the
// terminal and republishes every punch to downstream systems. It is the one
// place in the service where a device session is reopened in a loop; each
// attempt still owns exactly one session, closed before the next begins.
package forwarder

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"zkbridge.service/internal/alert"
	"zkbridge.service/internal/core"
	"zkbridge.service/internal/core/stream"
	"zkbridge.service/internal/ports/device"
	"zkbridge.service/internal/ports/messaging"
	"zkbridge.service/internal/worker/webhook"
)

// Forwarder consumes realtime frames and fans them out to SQS and, when
// configured, a downstream webhook. The webhook sits behind a circuit
// breaker so a struggling receiver does not stall punch forwarding.
type Forwarder struct {
	service  *core.DeviceService
	producer messaging.PunchProducer
	webhook  webhook.Client // nil when no webhook is configured
	endpoint device.Endpoint
	cb       *gobreaker.CircuitBreaker
}

// New wires up a forwarder. The mailer (optional) is notified whenever the
// webhook breaker opens, once per open transition.
func New(service *core.DeviceService, producer messaging.PunchProducer, hook webhook.Client, mailer alert.Mailer, endpoint device.Endpoint) *Forwarder {
	settings := gobreaker.Settings{
		Name:        "Punch-Webhook",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger then 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
			if to == gobreaker.StateOpen && mailer != nil {
				go sendBreakerAlert(mailer, name, endpoint)
			}
		},
	}

	return &Forwarder{
		service:  service,
		producer: producer,
		webhook:  hook,
		endpoint: endpoint,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

// Run holds the realtime subscription open until the context is cancelled.
// When the device drops the stream, Run reconnects with exponential backoff
// (capped at one minute); a successful stream resets the backoff.
func (f *Forwarder) Run(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			log.Info().Msg("Forwarder shutting down...")
			return
		}

		startedAt := time.Now()
		err := f.service.StreamRealtime(ctx, f.endpoint, func(frame stream.Frame) error {
			return f.forwardFrame(ctx, frame)
		})
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}

		// A stream that survived for a while counts as a fresh start for
		// backoff purposes.
		if time.Since(startedAt) > time.Minute {
			attempt = 0
		}
		attempt++

		delay := backoffDelay(attempt)
		log.Error().Err(err).
			Str("endpoint", f.endpoint.String()).
			Dur("retry_in", delay).
			Msg("Realtime stream failed, will reconnect")

		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}
}

// forwardFrame publishes one punch under the run's context, so in-flight
// deliveries are cut off on shutdown. SQS delivery failures are fatal for
// the stream attempt (the event would otherwise be lost silently); webhook
// failures are contained by the breaker and only logged.
func (f *Forwarder) forwardFrame(ctx context.Context, frame stream.Frame) error {
	event := messaging.PunchEvent{
		DeviceUserID: frame.DeviceUserID,
		AttTime:      frame.AttTime,
		VerifyMethod: frame.VerifyMethod,
		InOutMode:    frame.InOutMode,
		DeviceHost:   f.endpoint.Host,
		OccurredAt:   time.Now().UTC(),
	}

	if err := f.producer.PublishPunch(ctx, event); err != nil {
		return err
	}

	if f.webhook == nil {
		return nil
	}

	_, err := f.cb.Execute(func() (interface{}, error) {
		return nil, f.webhook.DeliverPunch(ctx, event)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Warn().Msg("Circuit Breaker is OPEN; skipping webhook delivery")
			return nil
		}
		log.Error().Err(err).
			Str("device_user_id", event.DeviceUserID).
			Msg("Webhook delivery failed")
	}
	return nil
}

// sendBreakerAlert emails the operator that webhook delivery is suspended.
// Runs off the breaker's callback goroutine so a slow SES call cannot block
// state transitions.
func sendBreakerAlert(mailer alert.Mailer, breakerName string, endpoint device.Endpoint) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	subject := "Punch forwarder: webhook delivery suspended"
	body := "The circuit breaker " + breakerName + " opened while forwarding punches from terminal " +
		endpoint.String() + ". Webhook delivery is suspended until the downstream recovers; SQS publishing continues."
	if err := mailer.SendDeviceAlert(ctx, subject, body); err != nil {
		log.Error().Err(err).Msg("Failed to send breaker alert email")
	}
}

// backoffDelay determines how long to wait before reconnecting to the
// terminal. It increases the delay exponentially with each attempt.
func backoffDelay(attempt int) time.Duration {
	seconds := math.Pow(2, float64(attempt))
	if seconds > 60 {
		seconds = 60 // cap at 1 minute
	}
	return time.Duration(seconds) * time.Second
}
