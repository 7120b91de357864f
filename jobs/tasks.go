// Package jobs contains the background workers that keep report caches warm
// and watch for overdue customer debts.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup pre-computes dashboard and statement caches.
	TaskReportWarmup = "report:warmup"
	// TaskOverdueScan flags unpaid debts past their due date.
	TaskOverdueScan = "ledger:overdue_scan"
)

// ReportWarmupPayload selects which owner's caches to warm.
type ReportWarmupPayload struct {
	OwnerID int64 `json:"ownerId"`
}

// NewReportWarmupTask constructs an Asynq task for cache warmup.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}

// OverdueScanPayload selects which owner's debts to scan.
type OverdueScanPayload struct {
	OwnerID int64 `json:"ownerId"`
}

// NewOverdueScanTask constructs an Asynq task for the overdue debt scan.
func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueScan, data), nil
}
