package main

import (
	"github.com/spf13/cobra"

	"github.com/sapliy/emergency-dispatch/internal/directory"
	"github.com/sapliy/emergency-dispatch/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate up|down",
	Short:     "Apply or roll back the directory schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		db, err := database.Connect(cmd.Context(), cfg.Database.DSN, database.Options{})
		if err != nil {
			return err
		}
		defer db.Close()

		if args[0] == "down" {
			if err := directory.MigrateDown(db); err != nil {
				return err
			}
			logger.Info("rolled back one migration")
			return nil
		}
		if err := directory.MigrateUp(db); err != nil {
			return err
		}
		logger.Info("migrations applied")
		return nil
	},
}
