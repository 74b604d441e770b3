package pipeline

import (
	"context"
	"time"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/platform/logger"
)

// Replayer rebuilds the entire ledger from stored events. Destructive and
// stop-the-world: it assumes no concurrent ingestion and provides no
// transactional guarantee, so a crash mid-replay leaves a torn state.
type Replayer struct {
	store     repository.Store
	processor *Processor
	bus       events.Bus
	log       *logger.Logger
}

func NewReplayer(store repository.Store, processor *Processor, bus events.Bus, log *logger.Logger) *Replayer {
	return &Replayer{store: store, processor: processor, bus: bus, log: log}
}

// Replay resets all scores, clears the ledger, and re-drives every processed
// event through the processor in timestamp order. Event records must be
// deleted first because the idempotency guard keys on their existence.
// Returns the number of events replayed.
func (r *Replayer) Replay(ctx context.Context) (int, error) {
	start := time.Now()
	r.log.Info("replay started")

	if err := r.store.ResetAllScores(ctx); err != nil {
		return 0, err
	}
	if err := r.store.DeleteAllHistory(ctx); err != nil {
		return 0, err
	}

	records, err := r.store.ListProcessed(ctx)
	if err != nil {
		return 0, err
	}

	if err := r.store.DeleteAllEvents(ctx); err != nil {
		return 0, err
	}

	replayed := 0
	for _, rec := range records {
		evt := Event{
			EventID:   rec.EventID,
			EventType: rec.EventType,
			Source:    rec.Source,
			Timestamp: rec.OccurredAt,
			Metadata:  Metadata(rec.Metadata),
		}
		if err := r.processor.Process(ctx, evt); err != nil {
			return replayed, err
		}
		replayed++
	}

	elapsed := time.Since(start)
	r.log.Info("replay finished", "events", replayed, "elapsed", elapsed)

	if r.bus != nil {
		r.bus.Publish(ctx, events.ReplayCompleted{
			BaseEvent:  events.NewBaseEvent(),
			Count:      replayed,
			DurationMS: elapsed.Milliseconds(),
		})
		r.bus.Publish(ctx, events.AnalyticsRefresh{
			BaseEvent: events.NewBaseEvent(),
			Type:      "replay",
		})
	}

	return replayed, nil
}
