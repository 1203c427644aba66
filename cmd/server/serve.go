package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/expense-tracker/backend/internal/config"
	"example.com/expense-tracker/backend/internal/database"
	"example.com/expense-tracker/backend/internal/mail"
	"example.com/expense-tracker/backend/internal/notifications"
	"example.com/expense-tracker/backend/internal/repository"
	"example.com/expense-tracker/backend/internal/server"
	"example.com/expense-tracker/backend/internal/tips"
)

const (
	shutdownTimeout      = 10 * time.Second
	tokenCleanupInterval = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("migrations applied")
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	mailer, closeMailer, err := newMailer(cfg.Mail, logger)
	if err != nil {
		return err
	}
	defer closeMailer()

	e := server.New(cfg, logger, server.Deps{
		DB:       db,
		Mailer:   mailer,
		Notifier: notifications.NewHub(),
		Tips:     tips.NewGenerator(nil),
	})
	httpServer := server.NewHTTPServer(cfg.Server, e)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server started", slog.String("addr", httpServer.Addr))
		if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		cleanupRefreshTokens(gctx, repository.NewRefreshTokenRepository(db), logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})

	return g.Wait()
}

// newMailer подключает RabbitMQ, если задан AMQP_URL, иначе пишет ссылки в лог.
func newMailer(cfg config.MailConfig, logger *slog.Logger) (mail.Sender, func(), error) {
	if cfg.AMQPURL == "" {
		logger.Warn("AMQP_URL is not set, password reset links will be logged")
		return mail.LogSender{Logger: logger}, func() {}, nil
	}

	publisher, err := mail.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange, cfg.Queue)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to amqp: %w", err)
	}

	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close amqp connection", slog.String("error", err.Error()))
		}
	}, nil
}

func cleanupRefreshTokens(ctx context.Context, tokens *repository.RefreshTokenRepository, logger *slog.Logger) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := tokens.DeleteExpired(ctx, time.Now())
			if err != nil {
				logger.Error("refresh token cleanup failed", slog.String("error", err.Error()))
				continue
			}
			if deleted > 0 {
				logger.Info("expired refresh tokens removed", slog.Int64("count", deleted))
			}
		}
	}
}
