package ingest

import (
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"
)

// Module is the ingestion gateway implementing http.Module.
type Module struct {
	handler *Handler
	cfg     config.IngestConfig
	log     *logger.Logger
}

func NewModule(queue Enqueuer, cfg config.IngestConfig, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{
		handler: NewHandler(queue, val, log),
		cfg:     cfg,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "ingest"
}

// RegisterRoutes mounts ingestion routes on the rate-limited group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Ingest.POST("/events", m.handler.Ingest)
	ctx.Ingest.POST("/events/batch", m.handler.IngestCSV)
	ctx.Ingest.POST("/events/webhook", VerifySignature(m.cfg.GetWebhookSecret(), m.log), m.handler.Webhook)
}
