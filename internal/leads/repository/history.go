package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ScoreHistory is one row of the append-only score change ledger.
type ScoreHistory struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	ScoreChange    int
	ResultingScore int
	Reason         string
	EventRef       *uuid.UUID
	OccurredAt     time.Time
}

type AppendHistoryParams struct {
	LeadID         uuid.UUID
	ScoreChange    int
	ResultingScore int
	Reason         string
	EventRef       *uuid.UUID
}

// AppendHistory adds a ledger row. Rows are never updated; the only deletion
// path is the wholesale clear during replay.
func (r *Repository) AppendHistory(ctx context.Context, params AppendHistoryParams) (ScoreHistory, error) {
	var h ScoreHistory
	err := r.pool.QueryRow(ctx, `
		INSERT INTO score_history (lead_id, score_change, resulting_score, reason, event_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, lead_id, score_change, resulting_score, reason, event_ref, occurred_at
	`, params.LeadID, params.ScoreChange, params.ResultingScore, params.Reason, params.EventRef).
		Scan(&h.ID, &h.LeadID, &h.ScoreChange, &h.ResultingScore, &h.Reason, &h.EventRef, &h.OccurredAt)
	return h, err
}

// ListHistoryByLead returns the ledger for one lead, newest first.
func (r *Repository) ListHistoryByLead(ctx context.Context, leadID uuid.UUID) ([]ScoreHistory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, score_change, resulting_score, reason, event_ref, occurred_at
		FROM score_history
		WHERE lead_id = $1
		ORDER BY occurred_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]ScoreHistory, 0)
	for rows.Next() {
		var h ScoreHistory
		if err := rows.Scan(&h.ID, &h.LeadID, &h.ScoreChange, &h.ResultingScore, &h.Reason, &h.EventRef, &h.OccurredAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// DeleteAllHistory clears the ledger. Used only by the replay coordinator.
func (r *Repository) DeleteAllHistory(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM score_history`)
	return err
}
