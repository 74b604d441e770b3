// Package transport defines the wire DTOs for the leads read surface.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type LeadResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	ExternalID   string    `json:"externalId,omitempty"`
	Company      string    `json:"company"`
	CurrentScore int       `json:"currentScore"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}

type ScoreHistoryEntry struct {
	ID             uuid.UUID  `json:"id"`
	ScoreChange    int        `json:"scoreChange"`
	ResultingScore int        `json:"resultingScore"`
	Reason         string     `json:"reason"`
	EventRef       *uuid.UUID `json:"eventRef,omitempty"`
	OccurredAt     time.Time  `json:"occurredAt"`
}

type LeadHistoryResponse struct {
	LeadID  uuid.UUID           `json:"leadId"`
	Entries []ScoreHistoryEntry `json:"entries"`
}
