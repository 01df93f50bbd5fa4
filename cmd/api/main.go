package main

import (
	"context"
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Storefront catalog and account API",
	Long: `Storefront serves the product catalog (list, search, detail, categories)
and customer accounts (register, login, profile, password, logout).

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to a JSON array of products")
	_ = seedCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, builds the logger and opens the database
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, database.Service, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	dbService, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		log.Sync()
		return nil, nil, nil, err
	}

	return cfg, log, dbService, nil
}
