package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"leadscore_backend/internal/pipeline"
	"leadscore_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen []string
	done chan struct{}
}

func (r *recordingProcessor) Process(ctx context.Context, evt pipeline.Event) error {
	r.mu.Lock()
	r.seen = append(r.seen, evt.EventID)
	r.mu.Unlock()
	select {
	case r.done <- struct{}{}:
	default:
	}
	return nil
}

func (r *recordingProcessor) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.seen))
	copy(out, r.seen)
	return out
}

func TestRunFallbackDrainsQueue(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := schedulerConfigStub{redisURL: "redis://" + mr.Addr(), queueName: "events"}
	q, err := New(cfg, logger.New("development"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer q.Close()

	mr.Close()
	proc := &recordingProcessor{done: make(chan struct{}, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunFallback(ctx, q, proc, logger.New("development"))

	if err := q.Enqueue(context.Background(), testEvent("evt-fb")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case <-proc.done:
	case <-time.After(time.Second):
		t.Fatal("fallback consumer did not process the event")
	}

	if got := proc.events(); len(got) != 1 || got[0] != "evt-fb" {
		t.Fatalf("processed events = %v, want [evt-fb]", got)
	}
}

func TestParseProcessEventPayloadRoundTrip(t *testing.T) {
	evt := testEvent("evt-rt")
	task, err := NewProcessEventTask(evt)
	if err != nil {
		t.Fatalf("NewProcessEventTask: %v", err)
	}
	if task.Type() != TaskProcessEvent {
		t.Fatalf("task type = %q, want %q", task.Type(), TaskProcessEvent)
	}

	got, err := ParseProcessEventPayload(task)
	if err != nil {
		t.Fatalf("ParseProcessEventPayload: %v", err)
	}
	if got.EventID != evt.EventID || got.EventType != evt.EventType {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
	if got.Metadata.Email() != "jane@example.com" {
		t.Fatalf("metadata email = %q", got.Metadata.Email())
	}
}
