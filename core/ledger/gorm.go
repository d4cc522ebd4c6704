package ledger

import (
	"context"
	"errors"
	"fmt"

	"unisync/core/catalog"
	"unisync/core/models"
	"unisync/core/source"

	"gorm.io/gorm"
)

// GormLedger stores runs in the sync_logs table. Rows are only inserted.
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger creates a ledger on db.
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

type logRow struct {
	models.SyncLog
	Institution string `gorm:"column:institution"`
}

func (l *GormLedger) universityID(ctx context.Context, institution string) (uint, error) {
	var uni models.University
	err := l.db.WithContext(ctx).Select("id").
		Where("code = ?", source.NormalizeInstitutionCode(institution)).
		First(&uni).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: %s", source.ErrUnknownInstitution, institution)
	}
	return uni.ID, err
}

// Record implements Ledger.
func (l *GormLedger) Record(ctx context.Context, run Run) error {
	if err := run.Validate(); err != nil {
		return err
	}
	uniID, err := l.universityID(ctx, run.Institution)
	if err != nil {
		return err
	}

	row := toLog(run, uniID)
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

func (l *GormLedger) query(ctx context.Context, institution string) *gorm.DB {
	return l.db.WithContext(ctx).
		Table("sync_logs").
		Select("sync_logs.*, universities.code AS institution").
		Joins("JOIN universities ON universities.id = sync_logs.university_id").
		Where("universities.code = ?", source.NormalizeInstitutionCode(institution)).
		Order("sync_logs.started_at DESC").
		Order("sync_logs.id DESC")
}

// Latest implements Ledger.
func (l *GormLedger) Latest(ctx context.Context, institution string, category catalog.Category) (*Run, error) {
	var rows []logRow
	err := l.query(ctx, institution).
		Where("sync_logs.data_type = ?", string(category)).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	run := fromLog(rows[0])
	return &run, nil
}

// History implements Ledger.
func (l *GormLedger) History(ctx context.Context, institution string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var rows []logRow
	if err := l.query(ctx, institution).Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load run history: %w", err)
	}
	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, fromLog(row))
	}
	return runs, nil
}

func toLog(run Run, universityID uint) models.SyncLog {
	details := make([]models.SyncError, 0, len(run.Errors))
	for _, e := range run.Errors {
		details = append(details, models.SyncError{Kind: e.Kind, Key: e.Key, Message: e.Message})
	}
	return models.SyncLog{
		RunID:            run.ID,
		UniversityID:     universityID,
		DataType:         string(run.Category),
		SyncStatus:       string(run.Status),
		RecordsProcessed: run.RecordsProcessed,
		ErrorsCount:      run.ErrorCount,
		ErrorDetails:     details,
		StartedAt:        run.StartedAt,
		CompletedAt:      run.CompletedAt,
		Meta: catalog.Metadata{
			"inserted":  run.Inserted,
			"updated":   run.Updated,
			"unchanged": run.Unchanged,
			"failed":    run.Failed,
			"attempts":  run.Attempts,
		},
	}
}

func fromLog(row logRow) Run {
	run := Run{
		ID:               row.RunID,
		Institution:      row.Institution,
		Category:         catalog.Category(row.DataType),
		Status:           Status(row.SyncStatus),
		StartedAt:        row.StartedAt,
		CompletedAt:      row.CompletedAt,
		RecordsProcessed: row.RecordsProcessed,
		ErrorCount:       row.ErrorsCount,
		Inserted:         metaInt(row.Meta, "inserted"),
		Updated:          metaInt(row.Meta, "updated"),
		Unchanged:        metaInt(row.Meta, "unchanged"),
		Failed:           metaInt(row.Meta, "failed"),
		Attempts:         metaInt(row.Meta, "attempts"),
	}
	for _, e := range row.ErrorDetails {
		run.Errors = append(run.Errors, ErrorDetail{Kind: e.Kind, Key: e.Key, Message: e.Message})
	}
	return run
}

func metaInt(m catalog.Metadata, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
