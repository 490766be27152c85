package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const entryColumns = "id, audio_url, title, status, run_id, attempts, primary_tag, segments, windows, error_kind, error_message, created_at, written_at, updated_at"

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry        Entry
		statusStr    string
		runID        sql.NullString
		primaryTag   sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		writtenRaw   sql.NullString
		updatedRaw   string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.AudioURL,
		&entry.Title,
		&statusStr,
		&runID,
		&entry.Attempts,
		&primaryTag,
		&entry.Segments,
		&entry.Windows,
		&errorKind,
		&errorMessage,
		&createdRaw,
		&writtenRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	entry.Status = Status(statusStr)
	entry.RunID = runID.String
	entry.PrimaryTag = primaryTag.String
	entry.ErrorKind = errorKind.String
	entry.ErrorMessage = errorMessage.String
	entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdRaw)
	if writtenRaw.Valid {
		entry.WrittenAt, _ = time.Parse(time.RFC3339Nano, writtenRaw.String)
	}
	entry.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedRaw)
	return &entry, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// Begin records that runID is starting work on the episode at audioURL. A new
// row is created on first sight; an existing row is reset to pending with its
// attempt counter incremented and previous error cleared.
func (s *Store) Begin(ctx context.Context, audioURL, title, runID string) (*Entry, error) {
	if strings.TrimSpace(audioURL) == "" {
		return nil, errors.New("audio url is required")
	}
	stamp := nowStamp()
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO episodes (audio_url, title, status, run_id, attempts, created_at, updated_at)
         VALUES (?, ?, ?, ?, 1, ?, ?)
         ON CONFLICT(audio_url) DO UPDATE SET
             title = excluded.title,
             status = excluded.status,
             run_id = excluded.run_id,
             attempts = episodes.attempts + 1,
             error_kind = NULL,
             error_message = NULL,
             updated_at = excluded.updated_at`,
		audioURL,
		title,
		StatusPending,
		nullableString(runID),
		stamp,
		stamp,
	); err != nil {
		return nil, fmt.Errorf("begin episode: %w", err)
	}
	return s.Get(ctx, audioURL)
}

// Get fetches the entry for audioURL. It returns nil when the episode has
// never been seen.
func (s *Store) Get(ctx context.Context, audioURL string) (*Entry, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM episodes WHERE audio_url = ?`, audioURL)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return entry, nil
}

func (s *Store) updateOne(ctx context.Context, audioURL, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("episode %q not found", audioURL)
	}
	return nil
}

// Transition moves an episode into status.
func (s *Store) Transition(ctx context.Context, audioURL string, status Status) error {
	if err := s.updateOne(ctx, audioURL,
		`UPDATE episodes SET status = ?, updated_at = ? WHERE audio_url = ?`,
		status, nowStamp(), audioURL,
	); err != nil {
		return fmt.Errorf("transition episode to %s: %w", status, err)
	}
	return nil
}

// Fail records a terminal failure. status is normally StatusFailed or
// StatusReview.
func (s *Store) Fail(ctx context.Context, audioURL string, status Status, kind, message string) error {
	if err := s.updateOne(ctx, audioURL,
		`UPDATE episodes SET status = ?, error_kind = ?, error_message = ?, updated_at = ? WHERE audio_url = ?`,
		status, nullableString(kind), nullableString(message), nowStamp(), audioURL,
	); err != nil {
		return fmt.Errorf("record episode failure: %w", err)
	}
	return nil
}

// RecordProgress stores the segment and window counts observed so far.
func (s *Store) RecordProgress(ctx context.Context, audioURL string, segments, windows int) error {
	if err := s.updateOne(ctx, audioURL,
		`UPDATE episodes SET segments = ?, windows = ?, updated_at = ? WHERE audio_url = ?`,
		segments, windows, nowStamp(), audioURL,
	); err != nil {
		return fmt.Errorf("record episode progress: %w", err)
	}
	return nil
}

// MarkWritten records that the episode's row reached the warehouse.
func (s *Store) MarkWritten(ctx context.Context, audioURL, primaryTag string) error {
	stamp := nowStamp()
	if err := s.updateOne(ctx, audioURL,
		`UPDATE episodes SET status = ?, primary_tag = ?, error_kind = NULL, error_message = NULL, written_at = ?, updated_at = ? WHERE audio_url = ?`,
		StatusWritten, nullableString(primaryTag), stamp, stamp, audioURL,
	); err != nil {
		return fmt.Errorf("mark episode written: %w", err)
	}
	return nil
}

// MarkReview records a written row whose content was flagged for a human to
// check. The reason is kept as the error message with kind "validation".
func (s *Store) MarkReview(ctx context.Context, audioURL, primaryTag, reason string) error {
	stamp := nowStamp()
	if err := s.updateOne(ctx, audioURL,
		`UPDATE episodes SET status = ?, primary_tag = ?, error_kind = 'validation', error_message = ?, written_at = ?, updated_at = ? WHERE audio_url = ?`,
		StatusReview, nullableString(primaryTag), nullableString(reason), stamp, stamp, audioURL,
	); err != nil {
		return fmt.Errorf("mark episode for review: %w", err)
	}
	return nil
}

// List returns entries ordered by first sight, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Entry, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + entryColumns + ` FROM episodes`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return entries, nil
}

// Counts returns the number of entries per status.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM episodes GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count episodes: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// ResetInFlight returns episodes left mid-stage by an interrupted run to
// pending so the next run picks them up again.
func (s *Store) ResetInFlight(ctx context.Context) (int64, error) {
	placeholders := make([]string, len(inFlightStatuses))
	args := []any{StatusPending, nowStamp()}
	for i, status := range inFlightStatuses {
		placeholders[i] = "?"
		args = append(args, status)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE episodes SET status = ?, updated_at = ? WHERE status IN (`+strings.Join(placeholders, ",")+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset in-flight episodes: %w", err)
	}
	return res.RowsAffected()
}
