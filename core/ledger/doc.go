// Package ledger keeps the append-only history of sync runs.
//
// Every (institution, category) run is recorded exactly once, when it is
// finalized, with its status, counters and a capped list of attributable
// errors. Entries are never updated or deleted; "latest status" is simply
// the most recent entry.
//
// Three implementations are provided:
//   - GormLedger persists runs in the sync_logs table.
//   - Memory keeps runs in process (tests, one-shot CLI runs).
//   - Cached wraps another ledger with a TTL cache for Latest and uses
//     singleflight so concurrent misses hit storage once.
package ledger
