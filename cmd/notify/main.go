package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/diagnosis/inkbook/internal/notify"
	"github.com/diagnosis/inkbook/pkg/config"
	"github.com/diagnosis/inkbook/pkg/events"
	"github.com/diagnosis/inkbook/pkg/logger"
	"github.com/diagnosis/inkbook/pkg/mailer"
)

func main() {
	cfg := config.Load()
	logger.SetOutput(os.Stdout, os.Getenv("LOG_LEVEL"), "notify")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus, err := events.NewNATSEventBus(cfg.NATS.URL, "inkbook-notify")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}

	n := notify.New(mailer.New(cfg.Email))
	if err := n.Subscribe(bus); err != nil {
		logger.Error("Failed to subscribe", "error", err)
		_ = bus.Close()
		os.Exit(1)
	}
	logger.Info("Notify service listening", "subjects", notify.Subjects, "queue", notify.QueueGroup)

	<-ctx.Done()
	logger.Info("Shutting down notify service...")
	if err := bus.Close(); err != nil {
		logger.Error("Notify service shutdown error", "error", err)
	}
}
