package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrEventNotFound is returned when no event record exists for an event id.
var ErrEventNotFound = errors.New("event record not found")

// EventRecord is the persisted form of an accepted event. It doubles as the
// idempotency ledger: existence of a row for an event_id means the event has
// been handled (processed or stored as orphan).
type EventRecord struct {
	ID         uuid.UUID
	EventID    string
	EventType  string
	Source     string
	OccurredAt time.Time
	Metadata   map[string]any
	LeadID     *uuid.UUID
	Processed  bool
	CreatedAt  time.Time
}

const eventColumns = `id, event_id, event_type, source, occurred_at, metadata, lead_id, processed, created_at`

func scanEventRecord(row pgx.Row) (EventRecord, error) {
	var rec EventRecord
	err := row.Scan(&rec.ID, &rec.EventID, &rec.EventType, &rec.Source, &rec.OccurredAt,
		&rec.Metadata, &rec.LeadID, &rec.Processed, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return EventRecord{}, ErrEventNotFound
	}
	return rec, err
}

// GetByEventID looks up an event record by its idempotency key.
func (r *Repository) GetByEventID(ctx context.Context, eventID string) (EventRecord, error) {
	return scanEventRecord(r.pool.QueryRow(ctx, `
		SELECT `+eventColumns+` FROM events WHERE event_id = $1
	`, eventID))
}

type CreateEventParams struct {
	EventID    string
	EventType  string
	Source     string
	OccurredAt time.Time
	Metadata   map[string]any
	LeadID     *uuid.UUID
	Processed  bool
}

// CreateEvent inserts an event record. The unique index on event_id makes a
// concurrent duplicate insert fail instead of double-recording.
func (r *Repository) CreateEvent(ctx context.Context, params CreateEventParams) (EventRecord, error) {
	return scanEventRecord(r.pool.QueryRow(ctx, `
		INSERT INTO events (event_id, event_type, source, occurred_at, metadata, lead_id, processed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+eventColumns+`
	`, params.EventID, params.EventType, params.Source, params.OccurredAt, params.Metadata, params.LeadID, params.Processed))
}

// ListProcessed returns every processed event record in timestamp order.
// This is the replay input.
func (r *Repository) ListProcessed(ctx context.Context) ([]EventRecord, error) {
	return r.queryEvents(ctx, `
		SELECT `+eventColumns+` FROM events WHERE processed ORDER BY occurred_at ASC
	`)
}

// ListEvents returns all event records, newest first.
func (r *Repository) ListEvents(ctx context.Context) ([]EventRecord, error) {
	return r.queryEvents(ctx, `
		SELECT `+eventColumns+` FROM events ORDER BY occurred_at DESC
	`)
}

// DeleteAllEvents clears the event store. The idempotency guard keys on row
// existence, so replay must delete before it can reprocess.
func (r *Repository) DeleteAllEvents(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM events`)
	return err
}

func (r *Repository) queryEvents(ctx context.Context, sql string, args ...any) ([]EventRecord, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]EventRecord, 0)
	for rows.Next() {
		rec, err := scanEventRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
