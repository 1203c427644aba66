package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"example.com/expense-tracker/backend/internal/auth"
	"example.com/expense-tracker/backend/internal/config"
	"example.com/expense-tracker/backend/internal/handlers"
	"example.com/expense-tracker/backend/internal/mail"
	"example.com/expense-tracker/backend/internal/notifications"
	"example.com/expense-tracker/backend/internal/repository"
	"example.com/expense-tracker/backend/internal/tips"
)

// Deps содержит внешние зависимости, которые создаются при запуске процесса.
type Deps struct {
	DB       *pgxpool.Pool
	Mailer   mail.Sender
	Notifier *notifications.Hub
	Tips     *tips.Generator
}

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, deps Deps) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Mailer == nil {
		deps.Mailer = mail.LogSender{Logger: logger}
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewHub()
	}
	if deps.Tips == nil {
		deps.Tips = tips.NewGenerator(nil)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, cfg.Auth.ResetTokenTTL)
	userRepo := repository.NewUserRepository(deps.DB)
	tokenRepo := repository.NewRefreshTokenRepository(deps.DB)
	expenseRepo := repository.NewExpenseRepository(deps.DB)
	statsRepo := repository.NewStatsRepository(deps.DB)
	adminRepo := repository.NewAdminRepository(deps.DB)

	registerRoutes(e,
		routeHandlers{
			health:        handlers.Health(deps.DB),
			auth:          handlers.NewAuthHandler(userRepo, tokenRepo, tokenManager, deps.Mailer, deps.Notifier, cfg.Mail.ResetLinkBase, cfg.Admin.Emails),
			expenses:      handlers.NewExpenseHandler(expenseRepo, deps.Notifier),
			stats:         handlers.NewStatsHandler(statsRepo, userRepo, deps.Tips),
			notifications: handlers.NewNotificationHandler(deps.Notifier),
			admin:         handlers.NewAdminHandler(adminRepo),
		},
		routeMiddleware{
			auth:        auth.JWTMiddleware(tokenManager),
			admin:       handlers.AdminMiddleware(userRepo, cfg.Admin.Emails),
			rateLimiter: authRateLimiter(cfg.Auth),
		},
	)

	return e
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

func authRateLimiter(cfg config.AuthConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.RateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
