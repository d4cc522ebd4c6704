package ledger

import (
	"context"
	"slices"
	"sync"

	"unisync/core/catalog"
	"unisync/core/source"
)

// Memory is an in-process ledger.
type Memory struct {
	mu   sync.RWMutex
	runs []Run
}

// NewMemory creates an empty ledger.
func NewMemory() *Memory {
	return &Memory{}
}

// Record implements Ledger.
func (m *Memory) Record(_ context.Context, run Run) error {
	if err := run.Validate(); err != nil {
		return err
	}
	run.Institution = source.NormalizeInstitutionCode(run.Institution)
	run.Errors = slices.Clone(run.Errors)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

// recent returns matching runs most recent first. Ties on start time keep
// the later append first.
func (m *Memory) recent(match func(Run) bool) []Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		if match(m.runs[i]) {
			out = append(out, m.runs[i])
		}
	}
	slices.SortStableFunc(out, func(a, b Run) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return out
}

// Latest implements Ledger.
func (m *Memory) Latest(_ context.Context, institution string, category catalog.Category) (*Run, error) {
	code := source.NormalizeInstitutionCode(institution)
	runs := m.recent(func(r Run) bool { return r.Institution == code && r.Category == category })
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// History implements Ledger.
func (m *Memory) History(_ context.Context, institution string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	code := source.NormalizeInstitutionCode(institution)
	runs := m.recent(func(r Run) bool { return r.Institution == code })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
