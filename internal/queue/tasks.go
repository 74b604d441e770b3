package queue

import (
	"encoding/json"

	"leadscore_backend/internal/pipeline"

	"github.com/hibiken/asynq"
)

// TaskProcessEvent carries one normalized event to the processor.
const TaskProcessEvent = "event.process"

// TaskScoreDecay triggers the daily inactivity decay sweep.
const TaskScoreDecay = "score.decay"

func NewProcessEventTask(evt pipeline.Event) (*asynq.Task, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	// event_id doubles as the asynq task id so the broker also dedupes
	// concurrent duplicate enqueues; the processor's guard remains the
	// authority across restarts.
	return asynq.NewTask(TaskProcessEvent, data, asynq.TaskID(evt.EventID)), nil
}

func ParseProcessEventPayload(task *asynq.Task) (pipeline.Event, error) {
	var evt pipeline.Event
	if err := json.Unmarshal(task.Payload(), &evt); err != nil {
		return pipeline.Event{}, err
	}
	return evt, nil
}

func NewScoreDecayTask() *asynq.Task {
	return asynq.NewTask(TaskScoreDecay, nil)
}
