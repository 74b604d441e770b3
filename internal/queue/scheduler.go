package queue

import (
	"context"

	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Scheduler registers the periodic decay task with the broker. Cron entries
// live in Redis, so exactly one registration fires per tick even with
// multiple consumer replicas. The flip side: while the broker is down the
// decay sweep pauses, even though the ingest fallback keeps scoring. A
// missed tick is not made up; each sweep deducts a single step, so decay
// resumes at the next successful tick.
type Scheduler struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewScheduler(schedCfg config.SchedulerConfig, decayCfg config.DecayConfig, log *logger.Logger) (*Scheduler, error) {
	opt, err := RedisClientOpt(schedCfg)
	if err != nil {
		return nil, err
	}

	queue := schedCfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Error("periodic task enqueue failed", "error", err)
			}
		},
	})

	spec := decayCfg.GetDecayCronSpec()
	if _, err := scheduler.Register(spec, NewScoreDecayTask(), asynq.Queue(queue)); err != nil {
		return nil, err
	}
	log.Info("decay schedule registered", "cron", spec)

	return &Scheduler{scheduler: scheduler, log: log}, nil
}

// Run serves the cron schedule until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if s == nil || s.scheduler == nil {
		return
	}

	go func() {
		<-ctx.Done()
		s.scheduler.Shutdown()
	}()

	if err := s.scheduler.Run(); err != nil {
		s.log.Error("decay scheduler stopped", "error", err)
	}
}
