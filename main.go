package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"speedbet/cmd"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return cmd.Run(ctx)
	}

	switch args[0] {
	case "serve":
		return cmd.Run(ctx)
	case "relay":
		return cmd.Relay(ctx)
	default:
		return fmt.Errorf("usage: speedbet [serve|relay]: unknown command %q", args[0])
	}
}
