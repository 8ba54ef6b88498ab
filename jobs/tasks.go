package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup precomputes dashboard payloads into the cache.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskAgingSnapshot persists a nightly AR/AP aging snapshot.
	TaskAgingSnapshot = "aging:snapshot"
)

// DashboardWarmupPayload scopes a warmup run.
type DashboardWarmupPayload struct {
	Period string `json:"period,omitempty"`
}

// NewDashboardWarmupTask constructs the warmup task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// AgingSnapshotPayload scopes a snapshot run. AsOf defaults to today.
type AgingSnapshotPayload struct {
	AsOf string `json:"as_of,omitempty"`
}

// NewAgingSnapshotTask constructs the snapshot task.
func NewAgingSnapshotTask(payload AgingSnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAgingSnapshot, data), nil
}
