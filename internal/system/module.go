package system

import (
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/platform/logger"
)

// Module is the operator surface implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(replayer Replayer, store ExportStore, log *logger.Logger) *Module {
	return &Module{
		handler: NewHandler(replayer, store, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "system"
}

// RegisterRoutes mounts operator routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/system")
	group.POST("/replay", m.handler.Replay)
	group.GET("/export/leads", m.handler.ExportLeads)
	group.GET("/export/events", m.handler.ExportEvents)
}
