package cmd

import (
	"fmt"

	"unisync/core/config"
	"unisync/core/database"
	"unisync/core/logger"
	"unisync/core/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd creates or updates the catalog tables.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the catalog schema",
	Long: `Runs GORM auto-migration for every catalog, institution and ledger table,
then verifies that each mapped column exists.`,
	RunE: runMigrate,
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	l.Info("Migrating schema", zap.String("driver", cfg.Database.Driver))
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	issues, err := database.VerifySchema(db, models.All()...)
	if err != nil {
		return fmt.Errorf("failed to verify schema: %w", err)
	}
	if len(issues) > 0 {
		for _, issue := range issues {
			l.Error("Schema issue", zap.String("issue", issue.String()))
		}
		return fmt.Errorf("schema has %d issues after migration", len(issues))
	}

	l.Info("Schema is up to date", zap.Int("tables", len(models.All())))
	return nil
}
