// Package journal persists one row per routed dispatch event in Postgres.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/aiftbot/core/dispatch"
	"github.com/m3rciful/aiftbot/core/logger"
)

const writeTimeout = 2 * time.Second

// Entry is a stored dispatch_journal row.
type Entry struct {
	ID          int64     `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Modality    string    `db:"modality" json:"modality"`
	Route       string    `db:"route" json:"route"`
	StateBefore string    `db:"state_before" json:"state_before,omitempty"`
	Status      string    `db:"status" json:"status"`
	Error       string    `db:"error" json:"error,omitempty"`
	DurationMS  int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RouteCount is the number of events routed to Route.
type RouteCount struct {
	Route string `db:"route" json:"route"`
	Count int64  `db:"count" json:"count"`
}

// Store writes and queries the dispatch journal.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// New returns a Store backed by db.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

const insertEntry = `INSERT INTO dispatch_journal
	(user_id, modality, route, state_before, status, error, duration_ms, created_at)
	VALUES (:user_id, :modality, :route, :state_before, :status, :error, :duration_ms, :created_at)`

// Record implements dispatch.Recorder.
func (s *Store) Record(ctx context.Context, rec dispatch.Record) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	e := fromRecord(rec, s.now)
	if _, err := s.db.NamedExecContext(ctx, insertEntry, e); err != nil {
		logger.DB.Warn("journal insert failed",
			slog.String("event", "journal.insert"),
			slog.String("route", e.Route),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// Recent returns the newest limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Entry
	err := s.db.SelectContext(ctx, &out, `SELECT id, user_id, modality, route, state_before, status, error, duration_ms, created_at
		FROM dispatch_journal ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal recent: %w", err)
	}
	return out, nil
}

// RouteCounts aggregates entries created at or after since, most frequent first.
func (s *Store) RouteCounts(ctx context.Context, since time.Time) ([]RouteCount, error) {
	var out []RouteCount
	err := s.db.SelectContext(ctx, &out, `SELECT route, COUNT(*) AS count
		FROM dispatch_journal WHERE created_at >= $1
		GROUP BY route ORDER BY count DESC, route`, since)
	if err != nil {
		return nil, fmt.Errorf("journal route counts: %w", err)
	}
	return out, nil
}

func fromRecord(rec dispatch.Record, now func() time.Time) Entry {
	at := rec.At
	if at.IsZero() {
		at = now()
	}
	return Entry{
		UserID:      rec.UserID,
		Modality:    rec.Modality,
		Route:       string(rec.Route),
		StateBefore: rec.StateBefore,
		Status:      rec.Status,
		Error:       rec.Error,
		DurationMS:  rec.Duration.Milliseconds(),
		CreatedAt:   at.UTC(),
	}
}

// Nop discards records. It stands in when no database is configured.
type Nop struct{}

// Record implements dispatch.Recorder.
func (Nop) Record(context.Context, dispatch.Record) error { return nil }
