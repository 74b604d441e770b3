package pipeline

import (
	"context"
	"fmt"
	"time"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"
)

// Decay reduces the score of inactive leads. It is an independent writer
// next to the processor, sharing the same clamping and append-only ledger
// invariants but no locks.
type Decay struct {
	store          repository.Store
	bus            events.Bus
	log            *logger.Logger
	inactivityDays int
	points         int
}

func NewDecay(store repository.Store, bus events.Bus, cfg config.DecayConfig, log *logger.Logger) *Decay {
	return &Decay{
		store:          store,
		bus:            bus,
		log:            log,
		inactivityDays: cfg.GetDecayInactivityDays(),
		points:         cfg.GetDecayPoints(),
	}
}

// Sweep decays every lead whose last mutation is older than the inactivity
// window and whose score is still positive. Returns the number of leads
// decayed; stops at the first persistence failure so the scheduler's retry
// policy can re-run the sweep (already-decayed leads drop out of the
// candidate set because UpdateScore bumps updated_at).
func (d *Decay) Sweep(ctx context.Context) (int, error) {
	if d.points == 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -d.inactivityDays)
	candidates, err := d.store.ListInactive(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	d.log.Info("decay sweep started", "candidates", len(candidates), "cutoff", cutoff)

	reason := fmt.Sprintf("Inactivity Decay (%d days)", d.inactivityDays)
	decayed := 0
	for _, lead := range candidates {
		newScore := lead.CurrentScore - d.points
		if newScore < minScore {
			newScore = minScore
		}

		updated, err := d.store.UpdateScore(ctx, lead.ID, newScore)
		if err != nil {
			return decayed, err
		}

		_, err = d.store.AppendHistory(ctx, repository.AppendHistoryParams{
			LeadID:         updated.ID,
			ScoreChange:    -d.points,
			ResultingScore: updated.CurrentScore,
			Reason:         reason,
		})
		if err != nil {
			return decayed, err
		}

		d.notify(ctx, updated)
		decayed++
	}

	d.log.Info("decay sweep finished", "decayed", decayed)
	return decayed, nil
}

func (d *Decay) notify(ctx context.Context, lead repository.Lead) {
	if d.bus == nil {
		return
	}
	email := ""
	if lead.Email != nil {
		email = *lead.Email
	}
	d.bus.Publish(ctx, events.ScoreUpdated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Score:     lead.CurrentScore,
		Name:      lead.Name,
		Email:     email,
	})
}
