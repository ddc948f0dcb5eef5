package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"library_api/internal/config"
	sl "library_api/internal/lib/logger/sl"
	"library_api/internal/mailsender"
	"library_api/internal/rabbitmq"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	log.Info("starting mail sender", slog.String("env", cfg.Env), slog.String("queue", cfg.RabbitMQ.QueueName))

	if err := startConsumer(ctx, cfg, log); err != nil {
		log.Error("consumer stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("service gracefully stopped")
}

func startConsumer(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	r, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return err
	}
	defer r.Close()

	m := mailsender.New(log, cfg.Email)

	done := make(chan error, 1)

	go func() {
		done <- r.StartReading(ctx, func(ctx context.Context, body []byte) error {
			if err := m.Handle(ctx, body); err != nil {
				log.Error("failed to send message", sl.Err(err))

				return err
			}

			return nil
		})
	}()

	log.Info("consumer successfully started")

	select {
	case <-ctx.Done():
		log.Info("shutting down consumer...")

		return nil
	case err := <-done:
		return err
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
