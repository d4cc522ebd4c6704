package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unisync/core/catalog"

	"go.uber.org/zap"
)

// Reconciler diffs batches of normalized records against stored state and
// applies the resulting inserts and updates atomically.
type Reconciler struct {
	store  Store
	logger *zap.Logger
}

// New creates a reconciler writing through store.
func New(store Store, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, logger: logger}
}

// Apply reconciles records of one category for one institution.
//
// Current state is loaded once and indexed by natural key. Absent keys are
// inserted, differing entities updated, identical ones left untouched.
// Records that fail validation or reference unknown parents are counted as
// failed and skipped. Any storage failure rolls back the whole batch and is
// returned as a *StorageError. Entities missing from records are never
// deleted.
func (r *Reconciler) Apply(ctx context.Context, institution string, category catalog.Category, records []catalog.Record, opts ApplyOptions) (*Result, error) {
	start := time.Now()
	result := &Result{Institution: institution, Category: category, DryRun: opts.DryRun}

	err := r.store.Batch(ctx, institution, func(tx Tx) error {
		return r.applyBatch(ctx, tx, category, records, opts, result)
	})

	if err != nil && !errors.Is(err, errDryRun) {
		var se *StorageError
		if !errors.As(err, &se) {
			err = &StorageError{Op: "transaction", Err: err}
		}
		r.logger.Warn("Reconciliation rolled back",
			zap.String("institution", institution),
			zap.String("category", string(category)),
			zap.Error(err),
		)
		return nil, err
	}

	r.logger.Debug("Reconciliation finished",
		zap.String("institution", institution),
		zap.String("category", string(category)),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("failed", result.Failed),
		zap.Bool("dry_run", opts.DryRun),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (r *Reconciler) applyBatch(ctx context.Context, tx Tx, category catalog.Category, records []catalog.Record, opts ApplyOptions, result *Result) error {
	existing, err := tx.Load(ctx, category)
	if err != nil {
		return &StorageError{Op: "load", Err: err}
	}

	parents := make(map[catalog.Category]map[string]uint, len(category.Parents()))
	for _, p := range category.Parents() {
		idx, err := tx.ParentIndex(ctx, p)
		if err != nil {
			return &StorageError{Op: "load " + string(p), Err: err}
		}
		parents[p] = idx
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return &StorageError{Op: "apply", Err: err}
		}

		if rec == nil || rec.Category() != category {
			result.fail(fmt.Sprintf("#%d", i), KindInvalidRecord, fmt.Errorf("record is not a %s", category))
			continue
		}

		key := rec.NaturalKey()
		if err := rec.Validate(); err != nil {
			result.fail(key, KindInvalidRecord, err)
			continue
		}

		refs, err := resolveRefs(rec, parents)
		if err != nil {
			result.fail(key, KindUnresolvedReference, err)
			continue
		}

		current, found := existing[key]
		if !found {
			id, err := tx.Insert(ctx, rec, refs)
			if err != nil {
				return &StorageError{Op: "insert", Key: key, Err: err}
			}
			existing[key] = Entity{ID: id, Record: rec, Refs: refs}
			result.Inserted++
			if opts.DryRun {
				result.Actions = append(result.Actions, Action{Type: ActionInsert, Key: key})
			}
			continue
		}

		mismatch := append(catalog.Diff(current.Record, rec), diffRefs(category.Parents(), current.Refs, refs)...)
		if len(mismatch) == 0 {
			result.Unchanged++
			continue
		}

		if err := tx.Update(ctx, current.ID, rec, refs); err != nil {
			return &StorageError{Op: "update", Key: key, Err: err}
		}
		existing[key] = Entity{ID: current.ID, Record: rec, Refs: refs}
		result.Updated++
		if opts.DryRun {
			result.Actions = append(result.Actions, Action{Type: ActionUpdate, Key: key, Mismatch: mismatch})
		}
	}

	if opts.DryRun {
		return errDryRun
	}
	return nil
}

// resolveRefs maps every parent key of rec to a storage id.
func resolveRefs(rec catalog.Record, parents map[catalog.Category]map[string]uint) (Refs, error) {
	keys := rec.ParentKeys()
	if len(keys) == 0 {
		return nil, nil
	}

	refs := make(Refs, len(keys))
	for _, parent := range rec.Category().Parents() {
		parentKey := keys[parent]
		id, ok := parents[parent][parentKey]
		if !ok {
			return nil, &UnresolvedReferenceError{
				Category:  rec.Category(),
				Key:       rec.NaturalKey(),
				Parent:    parent,
				ParentKey: parentKey,
			}
		}
		refs[parent] = id
	}
	return refs, nil
}

func diffRefs(parents []catalog.Category, stored, incoming Refs) []string {
	var out []string
	for _, parent := range parents {
		if stored[parent] != incoming[parent] {
			out = append(out, fmt.Sprintf("%s_id: stored=%d incoming=%d", parent, stored[parent], incoming[parent]))
		}
	}
	return out
}
