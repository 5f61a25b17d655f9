package commands

import (
	"context"
	"fmt"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/config"
	"github.com/parkwarden/parkwarden/pkg/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations for the compliance database.

This command applies pending database migrations to the configured database
(SQLite or PostgreSQL). It is required after upgrading parkwarden when schema
changes have been made.

Examples:
  # Run migrations with default config
  parkwarden migrate

  # Run migrations with custom config
  parkwarden migrate --config /etc/parkwarden/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	logger.Info("Running database migrations", "type", cfg.Database.Type)

	// Opening the store applies the migrations
	ctx := context.Background()
	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = st.Close() }()

	// Verify the migration worked by checking if we can query sites
	if _, err := st.ListActiveSites(ctx); err != nil {
		return fmt.Errorf("migration verification failed: %w", err)
	}

	fmt.Printf("Migrations completed successfully (database type: %s)\n", cfg.Database.Type)
	return nil
}
