package analytics

import (
	"leadscore_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	companyLimit = 10
	trendDays    = 7
)

// Handler handles HTTP requests for analytics.
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Dashboard retrieves headline stats.
// GET /api/v1/analytics/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.repo.Dashboard(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

// Companies retrieves the top companies by lead count.
// GET /api/v1/analytics/companies
func (h *Handler) Companies(c *gin.Context) {
	stats, err := h.repo.CompanyDistribution(c.Request.Context(), companyLimit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

// Trend retrieves the trailing 7-day event counts.
// GET /api/v1/analytics/trend
func (h *Handler) Trend(c *gin.Context) {
	points, err := h.repo.EventTrend(c.Request.Context(), trendDays)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, points)
}
