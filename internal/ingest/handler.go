// Package ingest is the producer-facing gateway: it validates and normalizes
// incoming engagement events and hands them to the queue. Acceptance is
// decoupled from processing; producers get a 202 before any scoring work.
package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"leadscore_backend/internal/pipeline"
	"leadscore_backend/platform/httpkit"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	sourceWebhook = "webhook"
	sourceBatch   = "csv_import"

	maxBatchRows = 10000
)

// Enqueuer hands accepted events to the processing queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, evt pipeline.Event) error
}

// Handler handles HTTP requests for event ingestion.
type Handler struct {
	queue Enqueuer
	val   *validator.Validator
	log   *logger.Logger
}

func NewHandler(queue Enqueuer, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{queue: queue, val: val, log: log}
}

type EventRequest struct {
	EventID   string         `json:"eventId" validate:"omitempty,max=200"`
	EventType string         `json:"event_type" validate:"required,min=1,max=100"`
	Source    string         `json:"source" validate:"required,min=1,max=100"`
	Timestamp *time.Time     `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

type acceptedResponse struct {
	EventID string `json:"eventId"`
	Status  string `json:"status"`
}

type batchAcceptedResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	EventIDs []string `json:"eventIds"`
}

// normalize fills the identity and time defaults and converts to the queue
// event shape.
func (r EventRequest) normalize() pipeline.Event {
	eventID := strings.TrimSpace(r.EventID)
	if eventID == "" {
		eventID = uuid.NewString()
	}
	ts := time.Now().UTC()
	if r.Timestamp != nil {
		ts = r.Timestamp.UTC()
	}
	return pipeline.Event{
		EventID:   eventID,
		EventType: strings.TrimSpace(r.EventType),
		Source:    strings.TrimSpace(r.Source),
		Timestamp: ts,
		Metadata:  pipeline.Metadata(r.Metadata),
	}
}

// Ingest accepts a single event from an API producer.
// POST /api/v1/events
func (h *Handler) Ingest(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	// API producers must send metadata; events without identity keys are
	// still accepted (stored as orphans), but a missing bag is a client bug.
	if req.Metadata == nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "metadata is required")
		return
	}

	evt := req.normalize()
	if err := h.queue.Enqueue(c.Request.Context(), evt); err != nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "event queue unavailable", nil)
		return
	}

	httpkit.JSON(c, http.StatusAccepted, acceptedResponse{EventID: evt.EventID, Status: "accepted"})
}

// Webhook accepts a single event object or an array of them from an external
// system. The source field is forced so producers cannot spoof it.
// POST /api/v1/events/webhook
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	requests, err := decodeWebhookBody(body)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	eventIDs := make([]string, 0, len(requests))
	for i := range requests {
		requests[i].Source = sourceWebhook
		if err := h.val.Struct(requests[i]); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
	}
	for _, req := range requests {
		evt := req.normalize()
		if err := h.queue.Enqueue(c.Request.Context(), evt); err != nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "event queue unavailable", nil)
			return
		}
		eventIDs = append(eventIDs, evt.EventID)
	}

	httpkit.JSON(c, http.StatusAccepted, batchAcceptedResponse{
		Accepted: len(eventIDs),
		EventIDs: eventIDs,
	})
}

// decodeWebhookBody accepts either a JSON object or a JSON array of objects.
func decodeWebhookBody(body []byte) ([]EventRequest, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, errors.New("empty body")
	}

	if strings.HasPrefix(trimmed, "[") {
		var requests []EventRequest
		if err := json.Unmarshal(body, &requests); err != nil {
			return nil, err
		}
		if len(requests) == 0 {
			return nil, errors.New("empty event array")
		}
		return requests, nil
	}

	var single EventRequest
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []EventRequest{single}, nil
}

// IngestCSV accepts a CSV batch. Required columns: event_type. Optional:
// event_id, timestamp (RFC 3339), email, lead_id, name, company, metadata
// (a JSON object merged under the column keys). Malformed rows and rows past
// the batch cap are counted as rejected; the rest of the batch still goes
// through.
// POST /api/v1/events/batch
func (h *Handler) IngestCSV(c *gin.Context) {
	reader, err := batchReader(c)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	requests, rejected, err := parseCSVEvents(reader)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	eventIDs := make([]string, 0, len(requests))
	for _, req := range requests {
		evt := req.normalize()
		if err := h.queue.Enqueue(c.Request.Context(), evt); err != nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "event queue unavailable", nil)
			return
		}
		eventIDs = append(eventIDs, evt.EventID)
	}

	h.log.Info("csv batch accepted", "accepted", len(eventIDs), "rejected", rejected)
	httpkit.JSON(c, http.StatusAccepted, batchAcceptedResponse{
		Accepted: len(eventIDs),
		Rejected: rejected,
		EventIDs: eventIDs,
	})
}

// batchReader returns the CSV stream from either a multipart "file" field or
// the raw request body.
func batchReader(c *gin.Context) (io.Reader, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		file, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return c.Request.Body, nil
}

func parseCSVEvents(r io.Reader) ([]EventRequest, int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, errors.New("missing csv header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["event_type"]; !ok {
		return nil, 0, errors.New("csv header missing event_type column")
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	requests := make([]EventRequest, 0)
	rejected := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rejected++
			continue
		}
		// Rows past the cap count as rejected so the producer's totals
		// reconcile with the file.
		if len(requests) >= maxBatchRows {
			rejected++
			continue
		}

		eventType := field(row, "event_type")
		if eventType == "" {
			rejected++
			continue
		}

		metadata := map[string]any{}
		if raw := field(row, "metadata"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
				rejected++
				continue
			}
		}
		for _, key := range []string{
			pipeline.MetaKeyEmail,
			pipeline.MetaKeyLeadID,
			pipeline.MetaKeyExternalID,
			pipeline.MetaKeyName,
			pipeline.MetaKeyCompany,
		} {
			if v := field(row, key); v != "" {
				metadata[key] = v
			}
		}

		req := EventRequest{
			EventID:   field(row, "event_id"),
			EventType: eventType,
			Source:    sourceBatch,
			Metadata:  metadata,
		}
		if raw := field(row, "timestamp"); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				rejected++
				continue
			}
			req.Timestamp = &ts
		}
		requests = append(requests, req)
	}

	return requests, rejected, nil
}
