package analytics

import (
	apphttp "leadscore_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the analytics bounded context implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{
		handler: NewHandler(NewRepository(pool)),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "analytics"
}

// RegisterRoutes mounts analytics routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/analytics")
	group.GET("/dashboard", m.handler.Dashboard)
	group.GET("/companies", m.handler.Companies)
	group.GET("/trend", m.handler.Trend)
}
