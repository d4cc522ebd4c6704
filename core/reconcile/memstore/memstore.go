// Package memstore is an in-memory reconcile.Store used in tests and dry
// local runs. Each batch works on a copy that is swapped in on commit.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"unisync/core/catalog"
	"unisync/core/reconcile"
)

type table map[string]reconcile.Entity

// Store keeps entities per institution and category.
type Store struct {
	mu         sync.Mutex
	data       map[string]map[catalog.Category]table
	nextID     uint
	commitErr  error
	delay      time.Duration
	failOn     map[string]error
	batchCount int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		data:   make(map[string]map[catalog.Category]table),
		failOn: make(map[string]error),
	}
}

// FailCommit makes every following commit fail with err. Nil clears it.
func (s *Store) FailCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// CommitDelay makes every following commit wait d first. A context that
// ends while waiting aborts the batch with the context error.
func (s *Store) CommitDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// FailOn makes any write of the given natural key fail with err.
func (s *Store) FailOn(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[key] = err
}

// Batches returns how many batches were started.
func (s *Store) Batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchCount
}

// Entities returns a copy of the committed entities of one pair.
func (s *Store) Entities(institution string, category catalog.Category) map[string]reconcile.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.data[institution][category])
}

// Count returns the number of committed entities of one pair.
func (s *Store) Count(institution string, category catalog.Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[institution][category])
}

// Batch implements reconcile.Store. Batches of one store are serialized.
func (s *Store) Batch(ctx context.Context, institution string, fn func(tx reconcile.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batchCount++
	if err := ctx.Err(); err != nil {
		return err
	}

	working := make(map[catalog.Category]table)
	for cat, t := range s.data[institution] {
		working[cat] = maps.Clone(t)
	}

	tx := &memTx{store: s, tables: working}
	if err := fn(tx); err != nil {
		return err
	}
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	if s.commitErr != nil {
		return s.commitErr
	}

	s.data[institution] = working
	s.nextID = tx.nextID()
	return nil
}

type memTx struct {
	store  *Store
	tables map[catalog.Category]table
	ids    uint
}

func (t *memTx) nextID() uint {
	return t.store.nextID + t.ids
}

func (t *memTx) table(category catalog.Category) table {
	tbl, ok := t.tables[category]
	if !ok {
		tbl = make(table)
		t.tables[category] = tbl
	}
	return tbl
}

func (t *memTx) Load(_ context.Context, category catalog.Category) (map[string]reconcile.Entity, error) {
	return maps.Clone(t.table(category)), nil
}

func (t *memTx) ParentIndex(_ context.Context, category catalog.Category) (map[string]uint, error) {
	idx := make(map[string]uint)
	for key, e := range t.table(category) {
		idx[key] = e.ID
	}
	return idx, nil
}

func (t *memTx) Insert(_ context.Context, rec catalog.Record, refs reconcile.Refs) (uint, error) {
	key := rec.NaturalKey()
	if err := t.store.failOn[key]; err != nil {
		return 0, err
	}
	tbl := t.table(rec.Category())
	if _, exists := tbl[key]; exists {
		return 0, fmt.Errorf("duplicate key %s", key)
	}
	t.ids++
	id := t.nextID()
	tbl[key] = reconcile.Entity{ID: id, Record: rec, Refs: refs}
	return id, nil
}

func (t *memTx) Update(_ context.Context, id uint, rec catalog.Record, refs reconcile.Refs) error {
	key := rec.NaturalKey()
	if err := t.store.failOn[key]; err != nil {
		return err
	}
	tbl := t.table(rec.Category())
	current, ok := tbl[key]
	if !ok || current.ID != id {
		return fmt.Errorf("no %s with id %d", rec.Category(), id)
	}
	tbl[key] = reconcile.Entity{ID: id, Record: rec, Refs: refs}
	return nil
}
