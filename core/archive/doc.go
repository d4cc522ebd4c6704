// Package archive keeps raw copies of what each sync fetched.
//
// After a successful fetch the orchestrator hands the normalized records to
// an Archiver, which writes them as one JSON document per run to object
// storage. Snapshots are never overwritten or deleted; they let operators
// inspect exactly what an institution served on a given run.
//
// Archive failures are reported to the caller but must never fail a sync.
package archive
