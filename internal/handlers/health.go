package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthTimeout = 2 * time.Second

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health возвращает статус сервиса и базы данных.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unavailable"})
			}
		}

		return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
	}
}
