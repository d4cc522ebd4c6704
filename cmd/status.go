package cmd

import (
	"context"
	"fmt"

	"unisync/core/catalog"
	"unisync/core/config"
	"unisync/core/database"
	"unisync/core/ledger"
	"unisync/core/logger"
	"unisync/core/models"
	"unisync/core/source"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for status command
	statusInstitution string
	statusHistory     int
)

// statusCmd prints the latest run of each category from the sync ledger.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest sync status per institution and category",
	Long: `Reads the sync ledger and reports the most recent run of every category.
With --history N the N most recent runs of the institution are listed instead.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusInstitution, "institution", "i", "", "Institution code (defaults to every institution in the ledger)")
	statusCmd.Flags().IntVar(&statusHistory, "history", 0, "List the N most recent runs instead of the latest per category")

	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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
	runs := ledger.NewGormLedger(db)

	codes := []string{source.NormalizeInstitutionCode(statusInstitution)}
	if statusInstitution == "" {
		codes = nil
		for _, inst := range cfg.Institutions {
			codes = append(codes, source.NormalizeInstitutionCode(inst.Code))
		}
		if len(codes) == 0 {
			if err := db.Model(&models.University{}).Order("code").Pluck("code", &codes).Error; err != nil {
				return fmt.Errorf("failed to list institutions: %w", err)
			}
		}
	}

	for _, code := range codes {
		if statusHistory > 0 {
			history, err := runs.History(ctx, code, statusHistory)
			if err != nil {
				return fmt.Errorf("failed to read history of %s: %w", code, err)
			}
			l.Info("Sync history", zap.String("institution", code), zap.Int("runs", len(history)))
			for _, run := range history {
				logRun(l, run)
			}
			continue
		}

		for _, category := range catalog.AllCategories() {
			run, err := runs.Latest(ctx, code, category)
			if err != nil {
				return fmt.Errorf("failed to read status of %s/%s: %w", code, category, err)
			}
			if run == nil {
				l.Info("Never synced", zap.String("institution", code), zap.String("category", string(category)))
				continue
			}
			logRun(l, *run)
		}
	}
	return nil
}
