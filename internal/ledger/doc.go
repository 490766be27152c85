// Package ledger persists per-episode progress in SQLite.
//
// Each feed entry with an audio link gets one row keyed by its audio URL. The
// pipeline moves the row through the stage statuses as work proceeds and the
// final status (written, failed, review) lets later runs skip finished
// episodes or retry failed ones. The ledger is bookkeeping only; the
// enriched rows themselves live in the configured warehouse.
//
// The store enables WAL mode and a busy timeout, and retries writes that hit
// SQLITE_BUSY with a short bounded backoff.
package ledger
