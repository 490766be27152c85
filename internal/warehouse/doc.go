// Package warehouse persists enriched episodes as single rows in an
// analytical table.
//
// A Sink hides the backend (sqlite, postgres, clickhouse, mongo or bigquery).
// Writer drives the per-episode write: ensure the table exists, truncate the
// long text columns, validate the row and insert it in one call. Write never
// returns an error; it logs the failure with the full row and reports an
// Outcome for the caller's bookkeeping.
package warehouse
