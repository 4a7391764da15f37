package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pinkoogupta/eduzap/config"
	"github.com/pinkoogupta/eduzap/db/sql/postgres"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return errors.New("migrate: database.driver must be postgres")
			}
			ctx := cmd.Context()
			db, err := postgres.Open(ctx, postgres.WithDSN(cfg.Database.DSN))
			if err != nil {
				return err
			}
			defer db.Close()
			return postgres.Migrate(ctx, db, logger)
		},
	}
	cmd.Flags().String("dsn", "", "PostgreSQL connection string")
	_ = root.v.BindPFlag("database.dsn", cmd.Flags().Lookup("dsn"))
	return cmd
}
