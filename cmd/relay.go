package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"speedbet/config"
	"speedbet/notifier"
	"speedbet/observability"
	"speedbet/transport"
)

// Relay polls the chain service once and republishes every notification on
// NATS, so that clients configured with NOTIFIER=nats share a single poller.
func Relay(ctx context.Context) error {
	cfg := config.Get()
	SetupLogging(cfg)

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		if err := observability.ShutdownGlobalMetrics(context.Background()); err != nil {
			log.WithError(err).Error("Error shutting down metrics")
		}
	}()

	t, err := transport.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open transport: %w", err)
	}
	if _, err := t.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect transport: %w", err)
	}
	defer t.Disconnect()

	publisher, err := notifier.NewNATSPublisher(cfg.NATSServers, cfg.NATSSubject)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer publisher.Close()

	stop, err := notifier.Relay(ctx, notifier.NewPoller(t, cfg.PollInterval), publisher)
	if err != nil {
		return fmt.Errorf("failed to start relay: %w", err)
	}
	defer stop()

	log.WithFields(log.Fields{
		"mode":    t.Mode(),
		"subject": cfg.NATSSubject,
	}).Info("Relaying chain notifications to NATS")

	<-ctx.Done()

	if err := publisher.Flush(); err != nil {
		log.WithError(err).Warn("Failed to flush pending notifications")
	}
	log.Info("Relay stopped")
	return nil
}
