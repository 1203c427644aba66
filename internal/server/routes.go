package server

import (
	"github.com/labstack/echo/v4"

	"example.com/expense-tracker/backend/internal/handlers"
)

type routeHandlers struct {
	health        echo.HandlerFunc
	auth          *handlers.AuthHandler
	expenses      *handlers.ExpenseHandler
	stats         *handlers.StatsHandler
	notifications *handlers.NotificationHandler
	admin         *handlers.AdminHandler
}

type routeMiddleware struct {
	auth        echo.MiddlewareFunc
	admin       echo.MiddlewareFunc
	rateLimiter echo.MiddlewareFunc
}

func registerRoutes(e *echo.Echo, h routeHandlers, mw routeMiddleware) {
	e.GET("/health", h.health)

	api := e.Group("/api/v1")
	authGroup := api.Group("/auth", mw.rateLimiter)

	authGroup.POST("/register", h.auth.Register)
	authGroup.POST("/login", h.auth.Login)
	authGroup.POST("/refresh", h.auth.Refresh)
	authGroup.POST("/logout", h.auth.Logout)
	authGroup.POST("/forgot-password", h.auth.ForgotPassword)
	authGroup.POST("/reset-password/:id/:token", h.auth.ResetPassword)
	authGroup.GET("/me", h.auth.Me, mw.auth)
	authGroup.PUT("/me/income", h.auth.UpdateIncome, mw.auth)

	expenses := api.Group("/expenses", mw.auth)
	expenses.POST("", h.expenses.Create)
	expenses.GET("/today", h.expenses.Today)
	expenses.GET("/previous", h.expenses.Previous)
	expenses.DELETE("/:id", h.expenses.Delete)

	stats := api.Group("/stats", mw.auth)
	stats.GET("/monthly", h.stats.Monthly)
	stats.GET("/categories", h.stats.Categories)
	stats.GET("/tip", h.stats.Tip)

	notifications := api.Group("/notifications", mw.auth)
	notifications.GET("/stream", h.notifications.Stream)

	admin := api.Group("/admin", mw.auth, mw.admin)
	admin.GET("/users", h.admin.ListUsers)
	admin.DELETE("/users/:id", h.admin.DeleteUser)
}
