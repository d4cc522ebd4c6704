package ledger

import (
	"context"
	"errors"
	"time"

	"unisync/core/catalog"
)

// Status is the final outcome of a run.
type Status string

const (
	// StatusSuccess means the fetch succeeded and every record reconciled.
	StatusSuccess Status = "success"
	// StatusPartial means the fetch succeeded but some records failed.
	StatusPartial Status = "partial"
	// StatusFailed means the run produced no committed changes.
	StatusFailed Status = "failed"
)

// ErrInvalidRun is returned when a run cannot be recorded.
var ErrInvalidRun = errors.New("invalid run")

// ErrorDetail is one attributable error of a run.
type ErrorDetail struct {
	// Kind classifies the error (timeout, bad_response, invalid_record, ...).
	Kind string `json:"kind"`
	// Key is the natural key of the affected record, if any.
	Key string `json:"key,omitempty"`
	// Message is the error text.
	Message string `json:"message"`
}

// Run is the outcome of one sync of one (institution, category) pair.
type Run struct {
	ID               string           `json:"id"`
	Institution      string           `json:"institution"`
	Category         catalog.Category `json:"category"`
	Status           Status           `json:"status"`
	StartedAt        time.Time        `json:"started_at"`
	CompletedAt      time.Time        `json:"completed_at"`
	RecordsProcessed int              `json:"records_processed"`
	Inserted         int              `json:"inserted"`
	Updated          int              `json:"updated"`
	Unchanged        int              `json:"unchanged"`
	Failed           int              `json:"failed"`
	// ErrorCount counts every error, including the ones dropped from Errors.
	ErrorCount int `json:"error_count"`
	// Attempts is the number of fetch attempts made.
	Attempts int `json:"attempts"`
	// Errors is a representative, capped list of errors.
	Errors []ErrorDetail `json:"errors,omitempty"`
}

// AddError counts an error and keeps its detail while fewer than limit are
// stored. A limit of zero or less keeps every detail.
func (r *Run) AddError(detail ErrorDetail, limit int) {
	r.ErrorCount++
	if limit > 0 && len(r.Errors) >= limit {
		return
	}
	r.Errors = append(r.Errors, detail)
}

// Duration is the wall time of the run.
func (r *Run) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Validate checks that the run is complete enough to be recorded.
func (r *Run) Validate() error {
	switch {
	case r.ID == "":
		return errors.Join(ErrInvalidRun, errors.New("missing id"))
	case r.Institution == "":
		return errors.Join(ErrInvalidRun, errors.New("missing institution"))
	case !r.Category.Valid():
		return errors.Join(ErrInvalidRun, errors.New("invalid category"))
	}
	switch r.Status {
	case StatusSuccess, StatusPartial, StatusFailed:
		return nil
	}
	return errors.Join(ErrInvalidRun, errors.New("invalid status"))
}

// Ledger is the append-only record of sync runs.
type Ledger interface {
	// Record appends a finalized run.
	Record(ctx context.Context, run Run) error
	// Latest returns the most recent run of a pair, or nil when none exists.
	Latest(ctx context.Context, institution string, category catalog.Category) (*Run, error)
	// History returns up to limit runs of an institution, most recent first.
	History(ctx context.Context, institution string, limit int) ([]Run, error)
}

// DefaultHistoryLimit applies when History is called with a non-positive limit.
const DefaultHistoryLimit = 20
