package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/udharbook/internal/accounts"
	"github.com/odyssey-erp/udharbook/internal/credit"
	jobmetrics "github.com/odyssey-erp/udharbook/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AccountLister enumerates every account in the store.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]accounts.Account, error)
}

// ReminderSource computes pending reminders for an account.
type ReminderSource interface {
	PendingReminders(ctx context.Context, accountID string, withinDays int) ([]credit.Reminder, error)
}

// ReminderScanJob walks every account and reports credit entries that are
// overdue or fall due inside the reminder window.
type ReminderScanJob struct {
	Accounts  AccountLister
	Reminders ReminderSource
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewReminderScanJob wires dependencies for the scan handler.
func NewReminderScanJob(accts AccountLister, reminders ReminderSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReminderScanJob {
	return &ReminderScanJob{Accounts: accts, Reminders: reminders, Logger: logger, Metrics: metrics}
}

// ScanResult summarises one scan.
type ScanResult struct {
	Accounts int
	Due      int
	Overdue  int
}

// Handle processes reminder scan tasks.
func (j *ReminderScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("reminder scan: handler not configured")
	}
	payload := ReminderScanPayload{WithinDays: -1}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Run(ctx, payload.WithinDays)
	return err
}

// Run performs the scan outside of asynq.
func (j *ReminderScanJob) Run(ctx context.Context, withinDays int) (result ScanResult, err error) {
	tracker := j.metrics().Track(TaskCreditReminderScan)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger()
	list, err := j.Accounts.ListAccounts(ctx)
	if err != nil {
		logger.Error("load accounts", slog.Any("error", err))
		return result, err
	}

	for _, acc := range list {
		reminders, rerr := j.Reminders.PendingReminders(ctx, acc.ID, withinDays)
		if rerr != nil {
			logger.Error("pending reminders", slog.String("account_id", acc.ID), slog.Any("error", rerr))
			return result, rerr
		}
		result.Accounts++
		for _, r := range reminders {
			result.Due++
			if r.DaysUntilDue < 0 {
				result.Overdue++
			}
		}
		if len(reminders) > 0 {
			logger.Info("credit reminders due",
				slog.String("account_id", acc.ID),
				slog.Int("count", len(reminders)),
			)
		}
	}
	j.metrics().AddReminders(result.Due)
	logger.Info("completed reminder scan",
		slog.Int("accounts", result.Accounts),
		slog.Int("due", result.Due),
		slog.Int("overdue", result.Overdue),
	)
	return result, nil
}

func (j *ReminderScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCreditReminderScan))
	}
	return slog.Default().With(slog.String("job", TaskCreditReminderScan))
}

func (j *ReminderScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
