package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSessionPurge = "session.purge"

const TaskAnalyticsRollup = "analytics.rollup"

type SessionPurgePayload struct {
	UserID string `json:"userId"`
}

type AnalyticsRollupPayload struct {
	Day string `json:"day"` // YYYY-MM-DD
}

func NewSessionPurgeTask(payload SessionPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPurge, data), nil
}

func ParseSessionPurgePayload(task *asynq.Task) (SessionPurgePayload, error) {
	var payload SessionPurgePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SessionPurgePayload{}, err
	}
	return payload, nil
}

func NewAnalyticsRollupTask(payload AnalyticsRollupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsRollup, data), nil
}

func ParseAnalyticsRollupPayload(task *asynq.Task) (AnalyticsRollupPayload, error) {
	var payload AnalyticsRollupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AnalyticsRollupPayload{}, err
	}
	return payload, nil
}
