// Package orchestrator runs catalog syncs.
//
// A sync of one (institution, category) pair goes through these steps:
//
// 1. Acquire the pair lock. Only one run per pair is ever in flight; a second
// request is rejected with ErrPairBusy or, with QueueOnBusy, waits.
//
// 2. Acquire a parallelism slot. MaxParallel bounds executing pairs across
// every caller so upstream sources are not overwhelmed collectively.
//
// 3. Fetch through the institution's adapter. Timeout and NetworkUnavailable
// failures are retried with exponential backoff; BadResponse is not.
//
// 4. Archive the fetched records, when an archiver is configured.
//
// 5. Reconcile the records in one transaction bounded by ReconcileTimeout.
//
// 6. Derive the status (success, partial or failed) and append the run to
// the ledger.
//
// RunSync fans out over institutions concurrently. Within one institution
// categories run in dependency stages (faculty, subject, term and instructor
// first, then course, then section, then exam) so parents are committed
// before the children that reference them.
package orchestrator
