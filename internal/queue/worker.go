package queue

import (
	"context"
	"fmt"

	"leadscore_backend/internal/pipeline"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// EventProcessor consumes one normalized event. Implementations must be
// idempotent per event id; the worker redelivers on error.
type EventProcessor interface {
	Process(ctx context.Context, evt pipeline.Event) error
}

// DecaySweeper runs one inactivity decay pass.
type DecaySweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Worker consumes the durable broker queue. Standalone consumer processes
// run only this; the API process additionally runs RunFallback against its
// own Queue instance so degraded-mode events are still scored.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor EventProcessor
	decay     DecaySweeper
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, processor EventProcessor, decay DecaySweeper, log *logger.Logger) (*Worker, error) {
	if cfg.GetRedisURL() == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := RedisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		processor: processor,
		decay:     decay,
		log:       log,
	}

	mux.HandleFunc(TaskProcessEvent, w.handleProcessEvent)
	mux.HandleFunc(TaskScoreDecay, w.handleScoreDecay)

	return w, nil
}

func (w *Worker) handleProcessEvent(ctx context.Context, task *asynq.Task) error {
	evt, err := ParseProcessEventPayload(task)
	if err != nil {
		// A payload that cannot be decoded will never succeed; retrying it
		// only churns the queue.
		w.log.Error("malformed event payload", "error", err)
		return fmt.Errorf("decode event payload: %v: %w", err, asynq.SkipRetry)
	}
	return w.processor.Process(ctx, evt)
}

func (w *Worker) handleScoreDecay(ctx context.Context, task *asynq.Task) error {
	if w.decay == nil {
		return nil
	}
	decayed, err := w.decay.Sweep(ctx)
	if err != nil {
		return err
	}
	w.log.Info("decay task finished", "decayed", decayed)
	return nil
}

// Run serves the broker queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("queue worker stopped", "error", err)
	}
}

// RunFallback drains a queue's in-process emitter. Processing failures are
// logged and the event dropped: the fallback path has no redelivery, which
// is the accepted durability loss of degraded mode.
func RunFallback(ctx context.Context, q *Queue, processor EventProcessor, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-q.Subscribe():
			if err := processor.Process(ctx, evt); err != nil {
				log.Error("fallback event failed",
					"event_id", evt.EventID,
					"event_type", evt.EventType,
					"error", err,
				)
			}
		}
	}
}
