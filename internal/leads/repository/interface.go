package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LeadStore is the lead persistence surface the pipeline writes through.
type LeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	GetByEmail(ctx context.Context, email string) (Lead, error)
	GetByExternalID(ctx context.Context, externalID string) (Lead, error)
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	UpdateScore(ctx context.Context, id uuid.UUID, score int) (Lead, error)
	ListInactive(ctx context.Context, cutoff time.Time) ([]Lead, error)
	ResetAllScores(ctx context.Context) error
}

// EventStore is the event record persistence surface.
type EventStore interface {
	GetByEventID(ctx context.Context, eventID string) (EventRecord, error)
	CreateEvent(ctx context.Context, params CreateEventParams) (EventRecord, error)
	ListProcessed(ctx context.Context) ([]EventRecord, error)
	DeleteAllEvents(ctx context.Context) error
}

// HistoryStore is the score ledger persistence surface.
type HistoryStore interface {
	AppendHistory(ctx context.Context, params AppendHistoryParams) (ScoreHistory, error)
	DeleteAllHistory(ctx context.Context) error
}

// Store combines the three pipeline-facing stores. *Repository satisfies it.
type Store interface {
	LeadStore
	EventStore
	HistoryStore
}

var _ Store = (*Repository)(nil)
