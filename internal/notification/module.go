// Package notification bridges domain events onto the SSE stream so
// dashboards see score changes in real time.
package notification

import (
	"context"

	"leadscore_backend/internal/events"
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/internal/notification/sse"
	"leadscore_backend/platform/logger"
)

// Module subscribes to scoring events and broadcasts them. Implements both
// events.Handler and http.Module (for the /events/stream endpoint).
type Module struct {
	sse *sse.Service
	log *logger.Logger
}

func New(sseService *sse.Service, log *logger.Logger) *Module {
	return &Module{sse: sseService, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// SSE returns the underlying SSE service.
func (m *Module) SSE() *sse.Service {
	return m.sse
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ScoreUpdated{}.EventName(), m)
	bus.Subscribe(events.AnalyticsRefresh{}.EventName(), m)
	bus.Subscribe(events.ReplayCompleted{}.EventName(), m)
}

// Handle dispatches domain events to the SSE stream. Notification delivery
// is best-effort and never fails the publisher.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ScoreUpdated:
		m.sse.Broadcast(sse.Event{
			Type: sse.EventScoreUpdate,
			Data: map[string]any{
				"leadId":    e.LeadID,
				"score":     e.Score,
				"name":      e.Name,
				"email":     e.Email,
				"timestamp": e.OccurredAt(),
			},
		})
	case events.AnalyticsRefresh:
		m.sse.Broadcast(sse.Event{
			Type: sse.EventAnalyticsRefresh,
			Data: map[string]any{
				"type":      e.Type,
				"timestamp": e.OccurredAt(),
			},
		})
	case events.ReplayCompleted:
		m.sse.Broadcast(sse.Event{
			Type: sse.EventReplayComplete,
			Data: map[string]any{
				"replayed":   e.Count,
				"durationMs": e.DurationMS,
				"timestamp":  e.OccurredAt(),
			},
		})
	default:
		m.log.Debug("unhandled event", "event", event.EventName())
	}
	return nil
}

// RegisterRoutes mounts the SSE stream endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/stream", m.sse.Handler())
}
