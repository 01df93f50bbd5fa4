package main

import (
	"storefront/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, dbService, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Sync()
		defer dbService.Close()

		return database.RunMigrations(dbService.DB(), log)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, dbService, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Sync()
		defer dbService.Close()

		return database.MigrationStatus(dbService.DB())
	},
}
