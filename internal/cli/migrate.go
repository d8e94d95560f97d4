package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"landlocked/internal/ledger/store/postgres"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the postgres ledger schema",
	RunE:  migrate,
}

func migrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is not configured")
	}
	ctx := cmd.Context()

	db, err := postgres.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	log.InfoContext(ctx, "ledger schema is up to date")
	return nil
}
