package cmd

import (
	"context"
	"fmt"

	"unisync/core/archive"
	"unisync/core/config"
	"unisync/core/database"
	"unisync/core/ledger"
	"unisync/core/models"
	"unisync/core/orchestrator"
	"unisync/core/reconcile"
	"unisync/core/source"
	"unisync/core/storage"
	"unisync/feature/institutions"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// components holds everything a sync needs, built once per command.
type components struct {
	db       *gorm.DB
	registry *source.Registry
	ledger   ledger.Ledger
	archiver *archive.Archiver
	orch     *orchestrator.Orchestrator
}

// buildComponents connects the database, registers the configured
// institutions and assembles the orchestrator.
func buildComponents(ctx context.Context, cfg *config.Config, logg *zap.Logger, dryRun bool) (*components, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	issues, err := database.VerifySchema(db, models.All()...)
	if err != nil {
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if len(issues) > 0 {
		missing := make([]string, 0, len(issues))
		for _, issue := range issues {
			missing = append(missing, issue.String())
		}
		logg.Warn("Database schema is incomplete, run `unisync migrate`", zap.Strings("issues", missing))
	}

	registry, err := institutions.NewRegistry(cfg.Institutions, logg)
	if err != nil {
		return nil, fmt.Errorf("failed to build institution registry: %w", err)
	}

	store := reconcile.NewGormStore(db)
	for _, inst := range registry.Institutions() {
		if _, err := store.EnsureInstitution(ctx, inst); err != nil {
			return nil, fmt.Errorf("failed to register institution %s: %w", inst.Code, err)
		}
	}

	c := &components{
		db:       db,
		registry: registry,
		ledger:   ledger.NewCached(ledger.NewGormLedger(db), cfg.Sync.CacheTTL),
	}

	opts := []orchestrator.Option{
		orchestrator.WithLogger(logg),
		orchestrator.WithDryRun(dryRun),
	}

	if cfg.Archive.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		c.archiver = archive.New(client, cfg.Storage.Bucket, cfg.Archive.Prefix, logg)
		if err := c.archiver.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare archive bucket: %w", err)
		}
		opts = append(opts, orchestrator.WithArchiver(c.archiver))
	}

	c.orch = orchestrator.New(registry, reconcile.New(store, logg), c.ledger, cfg.Sync, opts...)
	return c, nil
}

// logRun reports one finalized run.
func logRun(logg *zap.Logger, run ledger.Run) {
	fields := []zap.Field{
		zap.String("run_id", run.ID),
		zap.String("institution", run.Institution),
		zap.String("category", string(run.Category)),
		zap.String("status", string(run.Status)),
		zap.Int("processed", run.RecordsProcessed),
		zap.Int("inserted", run.Inserted),
		zap.Int("updated", run.Updated),
		zap.Int("unchanged", run.Unchanged),
		zap.Int("failed", run.Failed),
		zap.Int("attempts", run.Attempts),
		zap.Duration("duration", run.Duration()),
	}

	switch run.Status {
	case ledger.StatusSuccess:
		logg.Info("Sync run finished", fields...)
	case ledger.StatusPartial:
		logg.Warn("Sync run finished with errors", fields...)
	default:
		logg.Error("Sync run failed", fields...)
	}

	for _, detail := range run.Errors {
		logg.Debug("Run error",
			zap.String("run_id", run.ID),
			zap.String("kind", detail.Kind),
			zap.String("key", detail.Key),
			zap.String("message", detail.Message),
		)
	}
}
