package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/udharbook/internal/jobs"
)

// Warmer refreshes cached analytics for one account.
type Warmer interface {
	Warm(ctx context.Context, accountID string) error
}

// AnalyticsWarmupJob pre-populates the analytics cache for every account.
type AnalyticsWarmupJob struct {
	Accounts  AccountLister
	Analytics Warmer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	timeout   time.Duration
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler.
func NewAnalyticsWarmupJob(accts AccountLister, analytics Warmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{
		Accounts:  accts,
		Analytics: analytics,
		Logger:    logger,
		Metrics:   metrics,
		timeout:   20 * time.Second,
	}
}

// Handle processes analytics warmup tasks.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("analytics warmup: handler not configured")
	}
	var payload AnalyticsWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Run(ctx, payload.AccountID)
	return err
}

// Run warms accountID, or every account when it is empty, and reports how
// many accounts were refreshed.
func (j *AnalyticsWarmupJob) Run(ctx context.Context, accountID string) (warmed int, err error) {
	tracker := j.metrics().Track(TaskAnalyticsWarmup)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger()
	start := time.Now()
	ids := []string{accountID}
	if accountID == "" {
		list, lerr := j.Accounts.ListAccounts(ctx)
		if lerr != nil {
			logger.Error("load accounts", slog.Any("error", lerr))
			return 0, lerr
		}
		ids = ids[:0]
		for _, acc := range list {
			ids = append(ids, acc.ID)
		}
	}
	if len(ids) == 0 {
		logger.Info("no accounts to warm")
		return 0, nil
	}

	for _, id := range ids {
		if werr := j.warm(ctx, id); werr != nil {
			logger.Error("warm account", slog.String("account_id", id), slog.Any("error", werr))
			j.metrics().AddWarmed(warmed)
			return warmed, werr
		}
		warmed++
	}
	j.metrics().AddWarmed(warmed)
	logger.Info("completed analytics warmup", slog.Int("accounts", warmed), slog.Duration("duration", time.Since(start)))
	return warmed, nil
}

func (j *AnalyticsWarmupJob) warm(ctx context.Context, accountID string) error {
	if j.Analytics == nil {
		return nil
	}
	timeout := j.timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	accCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return j.Analytics.Warm(accCtx, accountID)
}

func (j *AnalyticsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsWarmup))
}

func (j *AnalyticsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
