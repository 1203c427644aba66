package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"example.com/expense-tracker/backend/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "expense-tracker",
	Short:         "Expense tracker API server",
	Long:          `HTTP API for tracking daily expenses, dashboard charts and money saving tips.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	ensureEnvFile()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig читает конфигурацию и настраивает JSON-логгер по умолчанию.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func ensureEnvFile() {
	if os.Getenv("ENV_FILE") != "" {
		return
	}

	if _, err := os.Stat(".env"); err == nil {
		_ = os.Setenv("ENV_FILE", ".env")
		return
	}

	if _, err := os.Stat("../.env"); err == nil {
		_ = os.Setenv("ENV_FILE", "../.env")
	}
}
