package pipeline

import (
	"context"
	"errors"
	"fmt"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/platform/logger"
)

const (
	// Score bounds. Rule magnitudes are clamped, never rejected.
	minScore = 0
	maxScore = 1000

	defaultName    = "Unknown"
	defaultCompany = "Unknown"
	defaultStatus  = "new"
)

// RuleReader resolves the active point value for an event type. Rules are
// mutated only by the admin surface; the pipeline only reads them.
type RuleReader interface {
	// ActivePoints returns the points for an active rule matching eventType.
	// ok is false when no active rule exists.
	ActivePoints(ctx context.Context, eventType string) (points int, ok bool, err error)
}

// Processor is the pipeline core. Process is idempotent per event id and
// safe under at-least-once redelivery: any persistence failure propagates to
// the caller, whose retry policy re-runs the whole sequence from the
// idempotency guard.
type Processor struct {
	store repository.Store
	rules RuleReader
	bus   events.Bus
	log   *logger.Logger
}

func NewProcessor(store repository.Store, rules RuleReader, bus events.Bus, log *logger.Logger) *Processor {
	return &Processor{store: store, rules: rules, bus: bus, log: log}
}

// Process runs one event through the scoring pipeline.
func (p *Processor) Process(ctx context.Context, evt Event) error {
	// Idempotency guard: an existing record means this delivery is a
	// duplicate. Absorb it silently.
	if _, err := p.store.GetByEventID(ctx, evt.EventID); err == nil {
		p.log.Debug("duplicate event skipped", "event_id", evt.EventID)
		return nil
	} else if !errors.Is(err, repository.ErrEventNotFound) {
		return err
	}

	lead, resolved, err := p.resolveLead(ctx, evt)
	if err != nil {
		return err
	}

	if !resolved {
		// Orphan: no identity key in metadata. Record it unprocessed so the
		// idempotency slot is consumed, then stop. No scoring, no notification.
		_, err := p.store.CreateEvent(ctx, repository.CreateEventParams{
			EventID:    evt.EventID,
			EventType:  evt.EventType,
			Source:     evt.Source,
			OccurredAt: evt.Timestamp,
			Metadata:   evt.Metadata,
			Processed:  false,
		})
		if err != nil {
			return err
		}
		p.log.Info("orphan event stored", "event_id", evt.EventID, "event_type", evt.EventType)
		return nil
	}

	points := 0
	if p.rules != nil {
		pts, ok, err := p.rules.ActivePoints(ctx, evt.EventType)
		if err != nil {
			return err
		}
		if ok {
			points = pts
		} else {
			p.log.Debug("no active scoring rule", "event_type", evt.EventType)
		}
	}

	newScore := clamp(lead.CurrentScore + points)

	updated, err := p.store.UpdateScore(ctx, lead.ID, newScore)
	if err != nil {
		return err
	}

	rec, err := p.store.CreateEvent(ctx, repository.CreateEventParams{
		EventID:    evt.EventID,
		EventType:  evt.EventType,
		Source:     evt.Source,
		OccurredAt: evt.Timestamp,
		Metadata:   evt.Metadata,
		LeadID:     &updated.ID,
		Processed:  true,
	})
	if err != nil {
		return err
	}

	// Zero-point events consume the idempotency slot but leave no ledger row.
	if points != 0 {
		_, err = p.store.AppendHistory(ctx, repository.AppendHistoryParams{
			LeadID:         updated.ID,
			ScoreChange:    points,
			ResultingScore: updated.CurrentScore,
			Reason:         "Event: " + evt.EventType,
			EventRef:       &rec.ID,
		})
		if err != nil {
			return err
		}
	}

	p.notifyScoreUpdated(ctx, updated)
	p.log.Info("event processed",
		"event_id", evt.EventID,
		"event_type", evt.EventType,
		"lead_id", updated.ID,
		"points", points,
		"score", updated.CurrentScore,
	)
	return nil
}

// resolveLead extracts an identity key from metadata, preferring email over
// the external id, and lazily creates the lead on first attributable event.
func (p *Processor) resolveLead(ctx context.Context, evt Event) (repository.Lead, bool, error) {
	email := evt.Metadata.Email()
	externalID := evt.Metadata.ExternalID()

	if email == "" && externalID == "" {
		return repository.Lead{}, false, nil
	}

	var (
		lead repository.Lead
		err  error
	)
	if email != "" {
		lead, err = p.store.GetByEmail(ctx, email)
	} else {
		lead, err = p.store.GetByExternalID(ctx, externalID)
	}
	if err == nil {
		return lead, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, false, err
	}

	params := repository.CreateLeadParams{
		Name:    defaultName,
		Company: defaultCompany,
		Status:  defaultStatus,
	}
	if name := evt.Metadata.Name(); name != "" {
		params.Name = name
	}
	if company := evt.Metadata.Company(); company != "" {
		params.Company = company
	}
	if externalID != "" {
		params.ExternalID = &externalID
	}
	if email == "" {
		// Leads identified only by external id still need a unique email.
		email = fmt.Sprintf("%s@placeholder.com", externalID)
	}
	params.Email = &email

	created, err := p.store.Create(ctx, params)
	if err != nil {
		return repository.Lead{}, false, err
	}
	p.log.Info("lead created", "lead_id", created.ID, "email", email)
	return created, true, nil
}

func (p *Processor) notifyScoreUpdated(ctx context.Context, lead repository.Lead) {
	if p.bus == nil {
		return
	}
	email := ""
	if lead.Email != nil {
		email = *lead.Email
	}
	p.bus.Publish(ctx, events.ScoreUpdated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Score:     lead.CurrentScore,
		Name:      lead.Name,
		Email:     email,
	})
	p.bus.Publish(ctx, events.AnalyticsRefresh{
		BaseEvent: events.NewBaseEvent(),
		Type:      "score_update",
	})
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
