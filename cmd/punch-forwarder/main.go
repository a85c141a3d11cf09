// Entry point for the realtime punch forwarder worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"

	"zkbridge.service/internal/adapters/sqsadapter"
	"zkbridge.service/internal/adapters/zkteco"
	"zkbridge.service/internal/alert"
	"zkbridge.service/internal/config"
	"zkbridge.service/internal/core"
	"zkbridge.service/internal/ports/device"
	"zkbridge.service/internal/worker/forwarder"
	"zkbridge.service/internal/worker/webhook"
	"zkbridge.service/pkg/aws"
	"zkbridge.service/pkg/logger"
	"zkbridge.service/pkg/telemetry"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer("punch-forwarder", cfg.IsLocalDev)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	// Initialize dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)
	producer := sqsadapter.NewSQSProducer(sqsClient, cfg.PunchSQSQueueURL)

	var hook webhook.Client
	if cfg.WebhookURL != "" {
		hook = webhook.NewHTTPClient(cfg.WebhookURL)
	}

	var mailer alert.Mailer
	if cfg.AlertRecipient != "" {
		sesClient := ses.NewFromConfig(awsCfg)
		mailer = alert.NewSESMailer(sesClient, cfg.AlertSender, cfg.AlertRecipient)
	}

	endpoint := device.Endpoint{
		Host:      cfg.DeviceIP,
		Port:      cfg.DevicePort,
		TimeoutMs: cfg.DeviceTimeoutMs,
		InPort:    cfg.DeviceInPort,
	}
	coreService := core.NewDeviceService(zkteco.NewDialer())
	fwd := forwarder.New(coreService, producer, hook, mailer, endpoint)

	// Start forwarder
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		fwd.Run(ctx)
	}()
	log.Info().Str("device", endpoint.String()).Msg("Punch forwarder started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info().Msg("Shutting down forwarder...")

	// Cancel the context to signal the forwarder loop to stop.
	cancel()

	log.Info().Msg("Forwarder exited gracefully")
}
