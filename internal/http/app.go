// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/queue"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.IngestConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// QueueHealth reports the event queue's active delivery path.
type QueueHealth interface {
	Mode() queue.Mode
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and ingest settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness/health checks (DB ping).
	Health HealthChecker
	// Queue reports durable vs fallback delivery for the health endpoint.
	Queue QueueHealth
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
