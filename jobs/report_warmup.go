package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kaskonter/kaskonter/internal/finance"
	"github.com/kaskonter/kaskonter/internal/observability"
	"github.com/kaskonter/kaskonter/internal/period"
)

// ReportWarmupJob pre-populates dashboard and statement caches for the
// timeframes the owner opens most.
type ReportWarmupJob struct {
	Finance *finance.Service
	Logger  *slog.Logger
	Metrics *observability.Metrics
	OwnerID int64
	clock   func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(financeSvc *finance.Service, logger *slog.Logger, metrics *observability.Metrics, ownerID int64) *ReportWarmupJob {
	return &ReportWarmupJob{
		Finance: financeSvc,
		Logger:  logger,
		Metrics: metrics,
		OwnerID: ownerID,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Finance == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	ownerID := payload.OwnerID
	if ownerID == 0 {
		ownerID = j.OwnerID
	}

	logger := j.logger().With(slog.Int64("owner_id", ownerID))
	logger.Info("starting report warmup")
	start := time.Now()

	for _, kind := range []period.Kind{period.Today, period.ThisWeek, period.ThisMonth} {
		if err := j.warmTimeframe(ctx, ownerID, period.Timeframe{Kind: kind}); err != nil {
			j.Metrics.RecordJob(TaskReportWarmup, "error")
			logger.Error("warm timeframe", slog.String("timeframe", string(kind)), slog.Any("error", err))
			return err
		}
	}

	j.Metrics.RecordJob(TaskReportWarmup, "ok")
	logger.Info("completed report warmup", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *ReportWarmupJob) warmTimeframe(ctx context.Context, ownerID int64, tf period.Timeframe) error {
	// Each timeframe gets its own deadline so one slow read cannot stall
	// the whole warmup.
	tfCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if _, err := j.Finance.Dashboard(tfCtx, ownerID, tf); err != nil {
		return err
	}
	if _, err := j.Finance.ProfitLoss(tfCtx, ownerID, tf); err != nil {
		return err
	}
	if _, err := j.Finance.CashFlow(tfCtx, ownerID, tf); err != nil {
		return err
	}
	return nil
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportWarmup))
}
