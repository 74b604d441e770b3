// Package system exposes operator endpoints: the destructive score replay
// and raw data exports.
package system

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/platform/httpkit"
	"leadscore_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Replayer rebuilds all scores from the stored events.
type Replayer interface {
	Replay(ctx context.Context) (int, error)
}

// ExportStore is the read surface for data exports.
type ExportStore interface {
	List(ctx context.Context) ([]repository.Lead, error)
	ListEvents(ctx context.Context) ([]repository.EventRecord, error)
}

// Handler handles operator HTTP requests.
type Handler struct {
	replayer Replayer
	store    ExportStore
	log      *logger.Logger

	// replaying rejects concurrent replay requests. Processing is assumed
	// quiet; this only guards against a double-click, not against ingestion.
	replaying atomic.Bool
}

func NewHandler(replayer Replayer, store ExportStore, log *logger.Logger) *Handler {
	return &Handler{replayer: replayer, store: store, log: log}
}

type replayResponse struct {
	Replayed   int   `json:"replayed"`
	DurationMS int64 `json:"durationMs"`
}

// Replay resets every score and reprocesses the stored events.
// POST /api/v1/system/replay
func (h *Handler) Replay(c *gin.Context) {
	if !h.replaying.CompareAndSwap(false, true) {
		httpkit.Error(c, http.StatusConflict, "replay already in progress", nil)
		return
	}
	defer h.replaying.Store(false)

	start := time.Now()
	count, err := h.replayer.Replay(c.Request.Context())
	if err != nil {
		h.log.Error("replay failed", "replayed", count, "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "replay failed", err.Error())
		return
	}

	httpkit.OK(c, replayResponse{
		Replayed:   count,
		DurationMS: time.Since(start).Milliseconds(),
	})
}

// ExportLeads streams all leads as JSON or CSV.
// GET /api/v1/system/export/leads?format=csv
func (h *Handler) ExportLeads(c *gin.Context) {
	leads, err := h.store.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	if c.Query("format") != "csv" {
		httpkit.OK(c, leads)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="leads.csv"`)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "name", "email", "external_id", "company", "current_score", "status", "created_at", "updated_at"})
	for _, lead := range leads {
		_ = w.Write([]string{
			lead.ID.String(),
			lead.Name,
			optional(lead.Email),
			optional(lead.ExternalID),
			lead.Company,
			strconv.Itoa(lead.CurrentScore),
			lead.Status,
			lead.CreatedAt.Format(time.RFC3339),
			lead.UpdatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
}

// ExportEvents streams all stored event records as JSON or CSV.
// GET /api/v1/system/export/events?format=csv
func (h *Handler) ExportEvents(c *gin.Context) {
	records, err := h.store.ListEvents(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	if c.Query("format") != "csv" {
		httpkit.OK(c, records)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="events.csv"`)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"event_id", "event_type", "source", "occurred_at", "lead_id", "processed", "metadata"})
	for _, rec := range records {
		leadID := ""
		if rec.LeadID != nil {
			leadID = rec.LeadID.String()
		}
		metadata, _ := json.Marshal(rec.Metadata)
		_ = w.Write([]string{
			rec.EventID,
			rec.EventType,
			rec.Source,
			rec.OccurredAt.Format(time.RFC3339),
			leadID,
			fmt.Sprintf("%t", rec.Processed),
			string(metadata),
		})
	}
	w.Flush()
}

func optional(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
