// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadscore_backend/platform/events"
	"leadscore_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Scoring Domain Events
// =============================================================================

// ScoreUpdated is published whenever a lead's score changes, by the event
// processor and by the decay sweep. Never published for orphan events.
type ScoreUpdated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Score  int       `json:"score"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
}

func (e ScoreUpdated) EventName() string { return "leads.score.updated" }

// AnalyticsRefresh is a coarse signal telling dashboards to refetch.
type AnalyticsRefresh struct {
	BaseEvent
	Type string `json:"type"`
}

func (e AnalyticsRefresh) EventName() string { return "analytics.refresh" }

// ReplayCompleted is published after a full ledger replay finishes.
type ReplayCompleted struct {
	BaseEvent
	Count      int   `json:"count"`
	DurationMS int64 `json:"durationMs"`
}

func (e ReplayCompleted) EventName() string { return "system.replay.completed" }
