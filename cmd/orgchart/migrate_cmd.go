package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|status",
		Short:     "Apply, roll back or list org chart schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{persistence.MigrateUp, persistence.MigrateDown, persistence.MigrateStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cmd, conf)

			pool, err := connectDB(cmd.Context(), conf)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := persistence.Migrate(cmd.Context(), pool, args[0], logger); err != nil {
				return withCode(exitDB, err)
			}
			logger.WithField("command", args[0]).Info("migrations done")
			return nil
		},
	}
}
