// Package queue implements the dual-mode event queue: a durable asynq
// (Redis) broker path with a one-way degrade to an in-process fallback
// emitter when the broker rejects or is unreachable.
package queue

import (
	"context"
	"crypto/tls"
	"errors"
	"sync"

	"leadscore_backend/internal/pipeline"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Mode reports which delivery path the queue is using.
type Mode string

const (
	// ModeDurable delivers through the asynq broker.
	ModeDurable Mode = "durable"
	// ModeFallback delivers through the in-process emitter. Non-persistent:
	// queued events are lost on crash and invisible to other processes.
	ModeFallback Mode = "fallback"
)

const fallbackBuffer = 1024

// Queue accepts events from producers and guarantees exactly one delivery
// path per event. The broker-healthy flag starts true and flips permanently
// false on the first broker failure; no reconnection is attempted for the
// remaining process lifetime.
type Queue struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger

	mu      sync.RWMutex
	healthy bool

	fallback chan pipeline.Event
}

// New creates the queue. Constructed once at process start; the degrade flag
// is owned by this instance, not ambient global state.
func New(cfg config.SchedulerConfig, log *logger.Logger) (*Queue, error) {
	opt, err := RedisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	queueName := cfg.GetAsynqQueueName()
	if queueName == "" {
		queueName = "default"
	}

	return &Queue{
		client:   asynq.NewClient(opt),
		queue:    queueName,
		log:      log,
		healthy:  true,
		fallback: make(chan pipeline.Event, fallbackBuffer),
	}, nil
}

// Enqueue hands an event to exactly one delivery path. It never blocks on
// broker health: a broker failure flips the degrade flag and reroutes this
// and every later event to the fallback emitter.
func (q *Queue) Enqueue(ctx context.Context, evt pipeline.Event) error {
	if q.Healthy() {
		task, err := NewProcessEventTask(evt)
		if err != nil {
			return err
		}

		_, err = q.client.EnqueueContext(ctx, task, asynq.Queue(q.queue))
		if err == nil {
			return nil
		}
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			// Same event id already waiting on the broker; the duplicate is
			// absorbed here instead of by the processor's guard.
			q.log.Debug("duplicate enqueue absorbed", "event_id", evt.EventID)
			return nil
		}

		q.degrade(err)
	}

	return q.emitFallback(evt)
}

// Healthy reports the broker flag under a read lock.
func (q *Queue) Healthy() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.healthy
}

// Mode reports the active delivery path for the health endpoint.
func (q *Queue) Mode() Mode {
	if q.Healthy() {
		return ModeDurable
	}
	return ModeFallback
}

// Subscribe exposes the fallback stream. Exactly one worker consumes it.
func (q *Queue) Subscribe() <-chan pipeline.Event {
	return q.fallback
}

// Close releases the broker client. The fallback channel stays open so a
// draining worker can finish in-flight events.
func (q *Queue) Close() error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.Close()
}

func (q *Queue) degrade(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.healthy {
		return
	}
	q.healthy = false
	q.log.QueueDegraded(err)
}

func (q *Queue) emitFallback(evt pipeline.Event) error {
	select {
	case q.fallback <- evt:
		return nil
	default:
		return errors.New("fallback queue full")
	}
}

// RedisClientOpt builds the asynq connection options from a redis URL.
func RedisClientOpt(cfg config.SchedulerConfig) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if cfg.GetRedisTLSInsecure() {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if cfg.GetRedisTLSInsecure() {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
