package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"unisync/core/catalog"
	"unisync/core/config"
	"unisync/core/ledger"
	"unisync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for sync command
	syncInstitutions []string
	syncCategories   []string
	syncDryRun       bool
)

// syncCmd runs a one-shot sync in the foreground.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync institution catalogs into the database",
	Long: `Fetches the requested categories from each institution and reconciles
them into the database. Every (institution, category) run is recorded in the
sync ledger.

Examples:
  # Sync every category of every registered institution
  unisync sync

  # Sync courses and sections of one institution
  unisync sync -i ualberta --category course,section

  # Fetch and diff without writing anything
  unisync sync -i ualberta --dry-run`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringSliceVarP(&syncInstitutions, "institution", "i", nil, "Institution code (repeatable, defaults to every registered institution)")
	syncCmd.Flags().StringSliceVar(&syncCategories, "category", nil, "Categories to sync (defaults to every category the adapter supports)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Fetch and diff without persisting or recording runs")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	categories, err := catalog.ParseCategories(syncCategories)
	if err != nil {
		return err
	}

	comps, err := buildComponents(ctx, cfg, l, syncDryRun)
	if err != nil {
		return err
	}

	codes := syncInstitutions
	if len(codes) == 0 {
		codes = comps.registry.Codes()
	}

	l.Info("Starting sync",
		zap.Strings("institutions", codes),
		zap.Strings("categories", syncCategories),
		zap.Bool("dry_run", syncDryRun),
	)

	runs, err := comps.orch.RunSync(ctx, codes, categories)
	for _, run := range runs {
		logRun(l, run)
	}

	counts := map[ledger.Status]int{}
	for _, run := range runs {
		counts[run.Status]++
	}
	l.Info("Sync finished",
		zap.Int("runs", len(runs)),
		zap.Int("success", counts[ledger.StatusSuccess]),
		zap.Int("partial", counts[ledger.StatusPartial]),
		zap.Int("failed", counts[ledger.StatusFailed]),
	)

	if err != nil {
		return err
	}
	if counts[ledger.StatusFailed] > 0 {
		return fmt.Errorf("%d of %d runs failed", counts[ledger.StatusFailed], len(runs))
	}
	return nil
}
