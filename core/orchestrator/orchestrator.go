package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"unisync/core/archive"
	"unisync/core/catalog"
	"unisync/core/ledger"
	"unisync/core/metrics"
	"unisync/core/reconcile"
	"unisync/core/source"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Error kinds recorded for run level failures that are not fetch errors.
const (
	KindStorage    = "storage"
	KindParseError = "parse_error"
)

// Applier reconciles one batch. *reconcile.Reconciler implements it.
type Applier interface {
	Apply(ctx context.Context, institution string, category catalog.Category, records []catalog.Record, opts reconcile.ApplyOptions) (*reconcile.Result, error)
}

// Archiver stores fetched snapshots. *archive.Archiver implements it.
type Archiver interface {
	Save(ctx context.Context, snap archive.Snapshot) (string, error)
}

// ActiveRun describes a run currently executing.
type ActiveRun struct {
	RunID       string           `json:"run_id"`
	Institution string           `json:"institution"`
	Category    catalog.Category `json:"category"`
	StartedAt   time.Time        `json:"started_at"`
}

type pairKey struct {
	institution string
	category    catalog.Category
}

// Orchestrator drives fetch, reconcile and ledger recording for
// (institution, category) pairs.
type Orchestrator struct {
	registry *source.Registry
	applier  Applier
	ledger   ledger.Ledger
	archiver Archiver
	cfg      Config
	dryRun   bool
	logger   *zap.Logger

	// slots bounds concurrently executing pairs across all callers.
	slots *semaphore.Weighted

	mu     sync.Mutex
	locks  map[pairKey]*semaphore.Weighted
	active map[pairKey]ActiveRun

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithArchiver enables snapshot archiving of every successful fetch.
func WithArchiver(a Archiver) Option {
	return func(o *Orchestrator) { o.archiver = a }
}

// WithDryRun makes every reconciliation roll back. Dry runs are neither
// archived nor recorded in the ledger.
func WithDryRun(dryRun bool) Option {
	return func(o *Orchestrator) { o.dryRun = dryRun }
}

// New creates an orchestrator.
func New(registry *source.Registry, applier Applier, l ledger.Ledger, cfg Config, opts ...Option) *Orchestrator {
	cfg = cfg.withDefaults()
	o := &Orchestrator{
		registry: registry,
		applier:  applier,
		ledger:   l,
		cfg:      cfg,
		logger:   zap.NewNop(),
		slots:    semaphore.NewWeighted(int64(cfg.MaxParallel)),
		locks:    make(map[pairKey]*semaphore.Weighted),
		active:   make(map[pairKey]ActiveRun),
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Registry returns the institution registry.
func (o *Orchestrator) Registry() *source.Registry { return o.registry }

// Ledger returns the run ledger.
func (o *Orchestrator) Ledger() ledger.Ledger { return o.ledger }

// Config returns the effective settings.
func (o *Orchestrator) Config() Config { return o.cfg }

// Pair identifies one (institution, category) sync unit.
type Pair struct {
	Institution string           `json:"institution"`
	Category    catalog.Category `json:"category"`
}

// Pairs validates a request the way RunSync does and returns the pairs it
// would execute, in execution order, without running anything.
func (o *Orchestrator) Pairs(codes []string, categories []catalog.Category) ([]Pair, error) {
	plans, err := o.plan(codes, categories)
	if err != nil {
		return nil, err
	}
	var pairs []Pair
	for _, p := range plans {
		for _, stage := range p.stages {
			for _, c := range stage {
				pairs = append(pairs, Pair{Institution: p.institution.Code, Category: c})
			}
		}
	}
	return pairs, nil
}

// Busy returns the pairs that currently have a run in flight.
func (o *Orchestrator) Busy(pairs []Pair) []Pair {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Pair
	for _, p := range pairs {
		if _, ok := o.active[pairKey{institution: p.Institution, category: p.Category}]; ok {
			out = append(out, p)
		}
	}
	return out
}

// SyncAll syncs every category of every registered institution.
func (o *Orchestrator) SyncAll(ctx context.Context) ([]ledger.Run, error) {
	return o.RunSync(ctx, o.registry.Codes(), nil)
}

type plan struct {
	institution source.Institution
	adapter     source.Adapter
	stages      [][]catalog.Category
}

// RunSync syncs the given categories of the given institutions and returns
// one run per executed pair. Empty categories means every category the
// adapter supports.
//
// Unknown institutions and unsupported categories fail the whole request
// before anything runs. Pairs that are busy are skipped and reported in the
// returned error (matching ErrPairBusy) next to the runs that did execute.
// Fetch and reconcile failures never produce an error here; they finalize
// the run as failed.
func (o *Orchestrator) RunSync(ctx context.Context, codes []string, categories []catalog.Category) ([]ledger.Run, error) {
	plans, err := o.plan(codes, categories)
	if err != nil {
		return nil, err
	}

	var (
		mu   sync.Mutex
		runs []ledger.Run
		errs error
	)
	collect := func(run *ledger.Run, err error) {
		mu.Lock()
		defer mu.Unlock()
		if run != nil {
			runs = append(runs, *run)
		}
		errs = multierr.Append(errs, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range plans {
		g.Go(func() error {
			for _, stage := range p.stages {
				sg, sctx := errgroup.WithContext(gctx)
				for _, category := range stage {
					sg.Go(func() error {
						run, err := o.RunPair(sctx, p.institution, p.adapter, category)
						collect(run, err)
						if err != nil && !errors.Is(err, ErrPairBusy) {
							return err
						}
						return nil
					})
				}
				if err := sg.Wait(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	// Every error returned inside the group was already collected.
	_ = g.Wait()

	slices.SortStableFunc(runs, func(a, b ledger.Run) int {
		if a.Institution != b.Institution {
			if a.Institution < b.Institution {
				return -1
			}
			return 1
		}
		return a.Category.Depth() - b.Category.Depth()
	})
	return runs, errs
}

func (o *Orchestrator) plan(codes []string, categories []catalog.Category) ([]plan, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: no institution requested", source.ErrUnknownInstitution)
	}

	seen := make(map[string]bool, len(codes))
	plans := make([]plan, 0, len(codes))
	for _, code := range codes {
		inst, err := o.registry.Institution(code)
		if err != nil {
			return nil, err
		}
		if seen[inst.Code] {
			continue
		}
		seen[inst.Code] = true

		adapter, err := o.registry.Lookup(inst.Code)
		if err != nil {
			return nil, err
		}

		selected := categories
		if len(selected) == 0 {
			selected = adapter.Categories()
		}
		for _, c := range selected {
			if !source.Supports(adapter, c) {
				return nil, fmt.Errorf("%w: %s does not provide %s", source.ErrUnsupportedCategory, inst.Code, c)
			}
		}
		plans = append(plans, plan{institution: inst, adapter: adapter, stages: catalog.Stages(dedupe(selected))})
	}
	return plans, nil
}

func dedupe(categories []catalog.Category) []catalog.Category {
	out := make([]catalog.Category, 0, len(categories))
	for _, c := range categories {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// Active lists runs currently executing, ordered by institution and category.
func (o *Orchestrator) Active() []ActiveRun {
	o.mu.Lock()
	out := make([]ActiveRun, 0, len(o.active))
	for _, a := range o.active {
		out = append(out, a)
	}
	o.mu.Unlock()

	slices.SortFunc(out, func(a, b ActiveRun) int {
		if a.Institution != b.Institution {
			if a.Institution < b.Institution {
				return -1
			}
			return 1
		}
		return a.Category.Depth() - b.Category.Depth()
	})
	return out
}

func (o *Orchestrator) lockFor(key pairKey) *semaphore.Weighted {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[key]
	if !ok {
		lock = semaphore.NewWeighted(1)
		o.locks[key] = lock
	}
	return lock
}

func (o *Orchestrator) setActive(key pairKey, run ActiveRun) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active[key] = run
}

func (o *Orchestrator) clearActive(key pairKey) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, key)
}

// RunPair executes one (institution, category) run under the pair lock. It
// returns an error only when the run could not start: the pair is busy, or
// ctx ended while waiting for the lock or a parallelism slot.
func (o *Orchestrator) RunPair(ctx context.Context, inst source.Institution, adapter source.Adapter, category catalog.Category) (*ledger.Run, error) {
	key := pairKey{institution: inst.Code, category: category}
	lock := o.lockFor(key)

	if o.cfg.QueueOnBusy {
		if err := lock.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	} else if !lock.TryAcquire(1) {
		metrics.RecordBusy(inst.Code, string(category))
		return nil, &BusyError{Institution: inst.Code, Category: category}
	}
	defer lock.Release(1)

	if err := o.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.slots.Release(1)

	done := metrics.TrackInFlight()
	defer done()

	run := &ledger.Run{
		ID:          uuid.NewString(),
		Institution: inst.Code,
		Category:    category,
		StartedAt:   o.now(),
	}
	o.setActive(key, ActiveRun{RunID: run.ID, Institution: inst.Code, Category: category, StartedAt: run.StartedAt})
	defer o.clearActive(key)

	logger := o.logger.With(
		zap.String("institution", inst.Code),
		zap.String("category", string(category)),
		zap.String("run_id", run.ID),
	)
	logger.Info("Sync started")

	o.execute(ctx, logger, adapter, run, o.fetchTimeout(inst))

	run.CompletedAt = o.now()
	metrics.RecordRun(run.Institution, string(run.Category), string(run.Status), run.Duration())

	if !o.dryRun {
		// The run is recorded even when the caller's context has ended.
		if err := o.ledger.Record(context.WithoutCancel(ctx), *run); err != nil {
			logger.Error("Failed to record sync run", zap.Error(err))
		}
	}

	logger.Info("Sync finished",
		zap.String("status", string(run.Status)),
		zap.Int("records", run.RecordsProcessed),
		zap.Int("inserted", run.Inserted),
		zap.Int("updated", run.Updated),
		zap.Int("unchanged", run.Unchanged),
		zap.Int("failed", run.Failed),
		zap.Int("attempts", run.Attempts),
		zap.Duration("duration", run.Duration()),
	)
	return run, nil
}

// fetchTimeout returns the per-attempt fetch deadline of inst.
func (o *Orchestrator) fetchTimeout(inst source.Institution) time.Duration {
	if inst.FetchTimeout > 0 {
		return inst.FetchTimeout
	}
	return o.cfg.FetchTimeout
}

// execute fills the outcome of run.
func (o *Orchestrator) execute(ctx context.Context, logger *zap.Logger, adapter source.Adapter, run *ledger.Run, fetchTimeout time.Duration) {
	limit := o.cfg.MaxErrorDetails

	// 1. Fetch with retries
	batch, attempts, err := o.fetch(ctx, logger, adapter, run, fetchTimeout)
	run.Attempts = attempts
	if err != nil {
		fe := source.Classify(err)
		run.AddError(ledger.ErrorDetail{Kind: string(fe.Kind), Message: fe.Error()}, limit)
		run.Status = ledger.StatusFailed
		return
	}

	run.RecordsProcessed = len(batch.Records) + len(batch.ParseErrors)
	for _, pe := range batch.ParseErrors {
		run.Failed++
		run.AddError(ledger.ErrorDetail{Kind: KindParseError, Key: pe.Ref, Message: pe.Error()}, limit)
	}

	// 2. Archive what was fetched
	if o.archiver != nil && !o.dryRun {
		o.archive(ctx, logger, run, batch)
	}

	// 3. Reconcile
	rctx, cancel := context.WithTimeout(ctx, o.cfg.ReconcileTimeout)
	defer cancel()

	result, err := o.applier.Apply(rctx, run.Institution, run.Category, batch.Records, reconcile.ApplyOptions{DryRun: o.dryRun})
	if err != nil {
		kind := KindStorage
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			kind = string(source.KindTimeout)
		}
		run.AddError(ledger.ErrorDetail{Kind: kind, Message: err.Error()}, limit)
		run.Status = ledger.StatusFailed
		logger.Warn("Reconciliation failed", zap.Error(err))
		return
	}

	run.Inserted = result.Inserted
	run.Updated = result.Updated
	run.Unchanged = result.Unchanged
	run.Failed += result.Failed
	for _, re := range result.Errors {
		run.AddError(ledger.ErrorDetail{Kind: re.Kind, Key: re.Key, Message: re.Error()}, limit)
	}
	metrics.RecordRecords(run.Institution, string(run.Category), result.Inserted, result.Updated, result.Unchanged, result.Failed)

	// 4. Derive status
	if run.Failed > 0 {
		run.Status = ledger.StatusPartial
	} else {
		run.Status = ledger.StatusSuccess
	}
}

// hint asks for an incremental fetch only when the previous run of the pair
// fully succeeded. Anything else gets a full re-fetch.
func (o *Orchestrator) hint(ctx context.Context, run *ledger.Run) source.Hint {
	latest, err := o.ledger.Latest(ctx, run.Institution, run.Category)
	if err != nil || latest == nil || latest.Status != ledger.StatusSuccess {
		return source.FullHint()
	}
	return source.IncrementalSince(latest.StartedAt)
}

func (o *Orchestrator) fetch(ctx context.Context, logger *zap.Logger, adapter source.Adapter, run *ledger.Run, timeout time.Duration) (source.Batch, int, error) {
	hint := o.hint(ctx, run)

	var lastErr *source.FetchError
	attempt := 0
	for attempt < o.cfg.MaxAttempts {
		attempt++

		fctx, cancel := context.WithTimeout(ctx, timeout)
		batch, err := source.Drain(fctx, adapter.Fetch(fctx, run.Category, hint))
		cancel()

		if err == nil {
			metrics.RecordFetchAttempt(run.Institution, string(run.Category), "ok")
			return batch, attempt, nil
		}

		lastErr = source.Classify(err)
		metrics.RecordFetchAttempt(run.Institution, string(run.Category), string(lastErr.Kind))

		if !lastErr.Retryable() || attempt >= o.cfg.MaxAttempts || ctx.Err() != nil {
			break
		}

		delay := o.cfg.Backoff(attempt)
		logger.Warn("Fetch failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(lastErr),
		)
		if err := o.sleep(ctx, delay); err != nil {
			lastErr = source.Classify(err)
			break
		}
	}

	logger.Warn("Fetch failed", zap.Int("attempts", attempt), zap.Error(lastErr))
	return source.Batch{}, attempt, lastErr
}

func (o *Orchestrator) archive(ctx context.Context, logger *zap.Logger, run *ledger.Run, batch source.Batch) {
	snap := archive.Snapshot{
		RunID:       run.ID,
		Institution: run.Institution,
		Category:    run.Category,
		FetchedAt:   o.now(),
		Records:     batch.Records,
	}
	for _, pe := range batch.ParseErrors {
		snap.ParseErrors = append(snap.ParseErrors, pe.Error())
	}
	if _, err := o.archiver.Save(ctx, snap); err != nil {
		logger.Warn("Failed to archive snapshot", zap.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
