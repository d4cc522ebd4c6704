package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"unisync/core/archive"
	"unisync/core/catalog"
	"unisync/core/ledger"
	"unisync/core/orchestrator"

	"go.uber.org/zap"
)

// ErrArchiveDisabled is returned when snapshots are requested but archiving
// is not configured.
var ErrArchiveDisabled = errors.New("snapshot archive is disabled")

// SnapshotLister lists archived snapshots.
type SnapshotLister interface {
	List(ctx context.Context, institution string, category catalog.Category) ([]archive.Entry, error)
}

// Service exposes the orchestrator, ledger and archive to the HTTP layer.
type Service struct {
	orch      *orchestrator.Orchestrator
	snapshots SnapshotLister
	logger    *zap.Logger

	// ctx outlives requests so background syncs survive the response.
	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

// NewService creates a service. snapshots may be nil when archiving is off.
func NewService(orch *orchestrator.Orchestrator, snapshots SnapshotLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		orch:      orch,
		snapshots: snapshots,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// InstitutionView is the public description of a registered institution.
type InstitutionView struct {
	Code            string             `json:"code"`
	Name            string             `json:"name"`
	Adapter         string             `json:"adapter"`
	Categories      []catalog.Category `json:"categories"`
	RequestInterval string             `json:"request_interval"`
	Country         string             `json:"country,omitempty"`
	Region          string             `json:"region,omitempty"`
	Website         string             `json:"website,omitempty"`
}

// Institutions lists the registry in code order.
func (s *Service) Institutions() []InstitutionView {
	reg := s.orch.Registry()
	var out []InstitutionView
	for _, inst := range reg.Institutions() {
		view := InstitutionView{
			Code:            inst.Code,
			Name:            inst.Name,
			Adapter:         inst.Adapter,
			RequestInterval: inst.RequestInterval.String(),
			Country:         inst.Country,
			Region:          inst.Region,
			Website:         inst.Website,
		}
		if a, err := reg.Lookup(inst.Code); err == nil {
			view.Categories = a.Categories()
		}
		out = append(out, view)
	}
	return out
}

// Sync runs the request and waits for every pair.
func (s *Service) Sync(ctx context.Context, codes []string, categories []catalog.Category) ([]ledger.Run, error) {
	return s.orch.RunSync(ctx, codes, categories)
}

// Start validates the request, rejects it when a requested pair is already
// running (unless runs queue on busy) and runs it in the background.
func (s *Service) Start(codes []string, categories []catalog.Category) ([]orchestrator.Pair, error) {
	pairs, err := s.orch.Pairs(codes, categories)
	if err != nil {
		return nil, err
	}
	if !s.orch.Config().QueueOnBusy {
		if busy := s.orch.Busy(pairs); len(busy) > 0 {
			return nil, &orchestrator.BusyError{Institution: busy[0].Institution, Category: busy[0].Category}
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		started := time.Now()
		runs, err := s.orch.RunSync(s.ctx, codes, categories)
		if err != nil {
			s.logger.Warn("Background sync finished with errors",
				zap.Strings("institutions", codes),
				zap.Int("runs", len(runs)),
				zap.Error(err))
			return
		}
		s.logger.Info("Background sync finished",
			zap.Strings("institutions", codes),
			zap.Int("runs", len(runs)),
			zap.Duration("duration", time.Since(started)))
	}()
	return pairs, nil
}

// SyncAllCodes returns every registered code.
func (s *Service) SyncAllCodes() []string {
	return s.orch.Registry().Codes()
}

// StatusView is the latest state of every category of one institution.
type StatusView struct {
	Institution string                          `json:"institution"`
	Latest      map[catalog.Category]*ledger.Run `json:"latest"`
	Active      []orchestrator.ActiveRun        `json:"active"`
}

// Status returns the latest run per category and the runs in flight.
func (s *Service) Status(ctx context.Context, code string) (*StatusView, error) {
	reg := s.orch.Registry()
	inst, err := reg.Institution(code)
	if err != nil {
		return nil, err
	}
	adapter, err := reg.Lookup(inst.Code)
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		Institution: inst.Code,
		Latest:      make(map[catalog.Category]*ledger.Run),
		Active:      []orchestrator.ActiveRun{},
	}
	for _, c := range adapter.Categories() {
		run, err := s.orch.Ledger().Latest(ctx, inst.Code, c)
		if err != nil {
			return nil, err
		}
		view.Latest[c] = run
	}
	for _, a := range s.orch.Active() {
		if a.Institution == inst.Code {
			view.Active = append(view.Active, a)
		}
	}
	return view, nil
}

// History returns recent runs, newest first.
func (s *Service) History(ctx context.Context, code string, limit int) ([]ledger.Run, error) {
	inst, err := s.orch.Registry().Institution(code)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = ledger.DefaultHistoryLimit
	}
	return s.orch.Ledger().History(ctx, inst.Code, limit)
}

// Snapshots lists archived snapshots, optionally of one category.
func (s *Service) Snapshots(ctx context.Context, code string, category catalog.Category) ([]archive.Entry, error) {
	if s.snapshots == nil {
		return nil, ErrArchiveDisabled
	}
	inst, err := s.orch.Registry().Institution(code)
	if err != nil {
		return nil, err
	}
	return s.snapshots.List(ctx, inst.Code, category)
}

// Close cancels background syncs and waits for them to finish.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}
