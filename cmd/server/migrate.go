package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"example.com/expense-tracker/backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		if err := database.Migrate(cfg.Database); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}

		logger.Info("migrations applied", slog.String("database", cfg.Database.Name))
		return nil
	},
}
