package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kaskonter/kaskonter/internal/ledger"
	"github.com/kaskonter/kaskonter/internal/observability"
)

// DebtLister is the slice of the ledger store the overdue scan reads.
type DebtLister interface {
	ListDebts(ctx context.Context, ownerID int64, f ledger.DebtFilter) ([]ledger.DebtRecord, error)
}

// OverdueScanJob walks unpaid debts and logs the ones past their due date so
// the owner can chase customers before month end.
type OverdueScanJob struct {
	Debts   DebtLister
	Logger  *slog.Logger
	Metrics *observability.Metrics
	OwnerID int64
	clock   func() time.Time
}

// NewOverdueScanJob wires dependencies for the overdue scan handler.
func NewOverdueScanJob(debts DebtLister, logger *slog.Logger, metrics *observability.Metrics, ownerID int64) *OverdueScanJob {
	return &OverdueScanJob{
		Debts:   debts,
		Logger:  logger,
		Metrics: metrics,
		OwnerID: ownerID,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes overdue scan tasks.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Debts == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	ownerID := payload.OwnerID
	if ownerID == 0 {
		ownerID = j.OwnerID
	}

	logger := j.logger().With(slog.Int64("owner_id", ownerID))

	unpaid := ledger.DebtUnpaid
	debts, err := j.Debts.ListDebts(ctx, ownerID, ledger.DebtFilter{Status: &unpaid})
	if err != nil {
		j.Metrics.RecordJob(TaskOverdueScan, "error")
		logger.Error("list unpaid debts", slog.Any("error", err))
		return err
	}

	now := j.now()
	overdue := 0
	for _, debt := range debts {
		if debt.Classify(now) != ledger.DebtOverdue {
			continue
		}
		overdue++
		logger.Warn("debt overdue",
			slog.Int64("debt_id", debt.ID),
			slog.String("category", string(debt.Category)),
			slog.String("principal", debt.Principal.String()),
			slog.Time("due_date", *debt.DueDate))
	}

	j.Metrics.RecordJob(TaskOverdueScan, "ok")
	logger.Info("completed overdue scan", slog.Int("unpaid", len(debts)), slog.Int("overdue", overdue))
	return nil
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskOverdueScan))
	}
	return slog.Default().With(slog.String("job", TaskOverdueScan))
}

func (j *OverdueScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
