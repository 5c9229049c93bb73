package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCreditReminderScan scans every account for credit entries due soon.
	TaskCreditReminderScan = "credit:reminder_scan"
	// TaskAnalyticsWarmup pre-computes each account's monthly report.
	TaskAnalyticsWarmup = "analytics:warmup"
)

// ReminderScanPayload configures a reminder scan run. A negative window uses
// the ledger's configured default.
type ReminderScanPayload struct {
	WithinDays int `json:"withinDays"`
}

// AnalyticsWarmupPayload narrows a warmup run to one account. Empty means all.
type AnalyticsWarmupPayload struct {
	AccountID string `json:"accountId,omitempty"`
}

// NewReminderScanTask builds a reminder scan task.
func NewReminderScanTask(withinDays int) (*asynq.Task, error) {
	data, err := json.Marshal(ReminderScanPayload{WithinDays: withinDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCreditReminderScan, data), nil
}

// NewAnalyticsWarmupTask builds a warmup task.
func NewAnalyticsWarmupTask(accountID string) (*asynq.Task, error) {
	data, err := json.Marshal(AnalyticsWarmupPayload{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsWarmup, data), nil
}
