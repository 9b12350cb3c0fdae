package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/constrite/internal/infra/db"
)

var migrateTarget int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
	Long:  `Migrates the configured database. --target -1 applies every migration, 0 rolls everything back.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		backend, err := db.ParseBackend(cfg.Database.Backend)
		if err != nil {
			return err
		}
		if backend == db.None {
			return fmt.Errorf("database.backend is none, nothing to migrate")
		}
		return db.Migrate(backend, databaseDSN(backend), migrateTarget, logger)
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateTarget, "target", -1, "target schema version")
	rootCmd.AddCommand(migrateCmd)
}
