package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadscore_backend/internal/pipeline"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type fakeQueue struct {
	enqueued []pipeline.Event
	err      error
}

func (f *fakeQueue) Enqueue(ctx context.Context, evt pipeline.Event) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, evt)
	return nil
}

func ingestRouter(q Enqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(q, validator.New(), logger.New("development"))
	engine := gin.New()
	engine.POST("/events", h.Ingest)
	engine.POST("/events/batch", h.IngestCSV)
	engine.POST("/events/webhook", h.Webhook)
	return engine
}

func TestIngestAcceptsEvent(t *testing.T) {
	q := &fakeQueue{}
	body := `{"event_type":"email_open","source":"api","metadata":{"email":"jane@example.com"}}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ingestRouter(q).ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
	}

	var resp struct {
		EventID string `json:"eventId"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EventID == "" {
		t.Fatal("response missing generated eventId")
	}
	if resp.Status != "accepted" {
		t.Fatalf("status = %q, want accepted", resp.Status)
	}

	if len(q.enqueued) != 1 {
		t.Fatalf("enqueued %d events, want 1", len(q.enqueued))
	}
	evt := q.enqueued[0]
	if evt.EventID != resp.EventID {
		t.Fatalf("enqueued event id %q != response id %q", evt.EventID, resp.EventID)
	}
	if evt.Metadata.Email() != "jane@example.com" {
		t.Fatalf("metadata email = %q", evt.Metadata.Email())
	}
	if evt.Timestamp.IsZero() {
		t.Fatal("timestamp not defaulted")
	}
}

func TestIngestKeepsClientEventID(t *testing.T) {
	q := &fakeQueue{}
	body := `{"eventId":"client-42","event_type":"page_view","source":"api","metadata":{"email":"jane@example.com"}}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ingestRouter(q).ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	if len(q.enqueued) != 1 || q.enqueued[0].EventID != "client-42" {
		t.Fatalf("client event id not preserved: %+v", q.enqueued)
	}
}

func TestIngestRejectsMissingEventType(t *testing.T) {
	q := &fakeQueue{}
	body := `{"source":"api"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ingestRouter(q).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(q.enqueued) != 0 {
		t.Fatal("invalid event reached the queue")
	}
}

func TestIngestRejectsMissingMetadata(t *testing.T) {
	q := &fakeQueue{}
	body := `{"event_type":"email_open","source":"api"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ingestRouter(q).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(q.enqueued) != 0 {
		t.Fatal("event without metadata reached the queue")
	}
}

func TestWebhookAcceptsSingleAndArray(t *testing.T) {
	q := &fakeQueue{}
	router := ingestRouter(q)

	single := `{"event_type":"demo_request","metadata":{"email":"a@example.com"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events/webhook", strings.NewReader(single))
	router.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("single: status = %d, want 202: %s", w.Code, w.Body.String())
	}

	array := `[{"event_type":"page_view"},{"event_type":"email_open"}]`
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/events/webhook", strings.NewReader(array))
	router.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("array: status = %d, want 202: %s", w.Code, w.Body.String())
	}

	if len(q.enqueued) != 3 {
		t.Fatalf("enqueued %d events, want 3", len(q.enqueued))
	}
	for _, evt := range q.enqueued {
		if evt.Source != "webhook" {
			t.Fatalf("webhook source = %q, want webhook", evt.Source)
		}
	}
}

func TestIngestCSVBatch(t *testing.T) {
	q := &fakeQueue{}
	csvBody := "event_id,event_type,email,timestamp\n" +
		"row-1,email_open,jane@example.com,2026-08-01T10:00:00Z\n" +
		",purchase,bob@example.com,\n" +
		"row-3,,missing-type@example.com,\n"

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events/batch", bytes.NewReader([]byte(csvBody)))
	req.Header.Set("Content-Type", "text/csv")
	ingestRouter(q).ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Accepted int `json:"accepted"`
		Rejected int `json:"rejected"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Accepted != 2 || resp.Rejected != 1 {
		t.Fatalf("accepted=%d rejected=%d, want 2/1", resp.Accepted, resp.Rejected)
	}

	if len(q.enqueued) != 2 {
		t.Fatalf("enqueued %d events, want 2", len(q.enqueued))
	}
	if q.enqueued[0].EventID != "row-1" {
		t.Fatalf("first event id = %q, want row-1", q.enqueued[0].EventID)
	}
	if q.enqueued[0].Source != "csv_import" {
		t.Fatalf("batch source = %q, want csv_import", q.enqueued[0].Source)
	}
	if q.enqueued[0].Metadata.Email() != "jane@example.com" {
		t.Fatalf("metadata email = %q", q.enqueued[0].Metadata.Email())
	}
	if q.enqueued[1].EventID == "" {
		t.Fatal("second row did not get a generated event id")
	}
}

func TestParseCSVEventsRejectsOverflowRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("event_type,email\n")
	for i := 0; i < maxBatchRows+2; i++ {
		sb.WriteString("page_view,jane@example.com\n")
	}

	requests, rejected, err := parseCSVEvents(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("parseCSVEvents: %v", err)
	}
	if len(requests) != maxBatchRows {
		t.Fatalf("accepted %d rows, want %d", len(requests), maxBatchRows)
	}
	if rejected != 2 {
		t.Fatalf("rejected = %d, want 2", rejected)
	}
}

func TestIngestQueueUnavailable(t *testing.T) {
	q := &fakeQueue{err: context.DeadlineExceeded}
	body := `{"event_type":"email_open","source":"api","metadata":{}}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ingestRouter(q).ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}
