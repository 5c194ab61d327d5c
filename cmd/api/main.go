package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/utilities"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "addressbook",
	Short: "Address book web service",
	Long:  "Server-rendered address book: accounts in Postgres, contacts in Redis or bbolt.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// load .env so os.Getenv picks values from it; real env vars win
		config.LoadDotEnv(envFiles...)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// newLogger builds the process logger from LOG_* settings.
func newLogger(cfg utilities.Config) (*zap.Logger, error) {
	lg, err := utilities.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return lg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
