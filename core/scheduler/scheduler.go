package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrEmptySchedule is returned when no cron expression is configured.
var ErrEmptySchedule = errors.New("empty schedule")

// Job is a periodic task. The context is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

// Scheduler runs a single job on a cron schedule. A tick that fires while the
// previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	job    Job
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
}

// New parses the standard five field expression (or a descriptor such as
// "@hourly" or "@every 6h") and prepares the scheduler without starting it.
func New(spec string, job Job, logger *zap.Logger) (*Scheduler, error) {
	if spec == "" {
		return nil, ErrEmptySchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(),
		job:    job,
		logger: logger.With(zap.String("schedule", spec)),
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Next returns the next activation time, or zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop cancels a running job and waits for it to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("Previous scheduled run still in progress, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	s.logger.Info("Scheduled run started")
	if err := s.job(s.ctx); err != nil {
		s.logger.Error("Scheduled run failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	s.logger.Info("Scheduled run finished", zap.Duration("duration", time.Since(start)))
}
