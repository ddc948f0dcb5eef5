package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"library_api/internal/auth"
	"library_api/internal/books"
	"library_api/internal/config"
	httpserver "library_api/internal/http_server"
	"library_api/internal/http_server/handlers/health"
	"library_api/internal/lib/api/validate"
	"library_api/internal/lib/hasher"
	sl "library_api/internal/lib/logger/sl"
	"library_api/internal/lib/verification"
	"library_api/internal/rabbitmq"
	"library_api/internal/storage/postgres"
	"library_api/internal/storage/redis"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting library api", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("service stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	storage, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer storage.Close()

	if err := storage.Migrate(ctx); err != nil {
		return err
	}

	resets, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer resets.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return err
	}
	defer msgBroker.Close()

	passHasher, err := hasher.New(cfg.Password.Algorithm, cfg.Password.BcryptCost)
	if err != nil {
		return err
	}

	signer, err := verification.NewSigner(cfg.Tokens.VerificationTokenSecret, cfg.Tokens.VerificationTokenTTL)
	if err != nil {
		return err
	}

	authService := auth.New(log, storage, storage, resets, passHasher, signer, msgBroker, auth.Config{
		BaseURL:        cfg.App.BaseURL,
		ResetURL:       cfg.App.ResetURL,
		ResetTTL:       cfg.Tokens.PasswordResetTTL,
		ResetThrottle:  cfg.Tokens.PasswordResetThrottle,
		PublishTimeout: cfg.RabbitMQ.PublishTimeout,
	})
	// * ждем фоновые уведомления до закрытия брокера
	defer authService.Wait()

	created, err := authService.EnsureAdmin(ctx, cfg.BootstrapAdmin.Name, cfg.BootstrapAdmin.Email, cfg.BootstrapAdmin.Password)
	if err != nil {
		return err
	}
	if created {
		log.Info("bootstrap admin created", slog.String("email", cfg.BootstrapAdmin.Email))
	}

	router := httpserver.NewRouter(log, httpserver.Deps{
		Auth:  authService,
		Books: books.New(log, storage),
		Health: map[string]health.Pinger{
			"postgres": storage,
			"redis":    resets,
		},
		Validate: validate.New(),
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))

		return err
	}

	log.Info("Server stopped gracefully")

	return nil
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
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
