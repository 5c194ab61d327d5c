package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/utilities"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		lg, err := newLogger(utilities.ConfigFromEnv())
		if err != nil {
			return err
		}
		defer lg.Sync()
		sugar := lg.Sugar()

		sqlDB, err := database.Connect(database.ConfigFromEnv())
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer sqlDB.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := database.Migrate(ctx, sqlDB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		sugar.Info("migrations applied")
		return nil
	},
}
