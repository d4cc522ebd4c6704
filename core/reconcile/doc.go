// Package reconcile applies normalized catalog records to persistent storage.
//
// A reconciliation takes one batch of records for one (institution, category)
// pair and makes storage agree with it:
//
//   - Current state is loaded once per batch and indexed by natural key.
//   - Keys absent from storage are inserted.
//   - Keys present with a different payload or different parent references
//     are updated in place.
//   - Identical entities are counted as unchanged and not written.
//   - Entities missing from the batch are never deleted.
//
// # Failures
//
// Two classes of failure are kept apart:
//
// 1. Record failures (invalid_record, unresolved_reference) skip a single
// record and are reported in Result.Errors. The rest of the batch proceeds.
//
// 2. Storage failures abort the batch. Every write of the batch is rolled back
// and Apply returns a *StorageError.
//
// # Stores
//
// The reconciler talks to a Store. GormStore runs each batch inside one GORM
// transaction against the catalog tables; the memstore package provides an
// in-memory store with failure injection for tests.
//
// # Usage Example
//
//	store := reconcile.NewGormStore(db)
//	r := reconcile.New(store, logger)
//
//	result, err := r.Apply(ctx, "ualberta", catalog.CategoryCourse, records, reconcile.ApplyOptions{})
//
//	// Preview without committing
//	preview, err := r.Apply(ctx, "ualberta", catalog.CategoryCourse, records, reconcile.ApplyOptions{DryRun: true})
package reconcile
