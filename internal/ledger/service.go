package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kaskonter/kaskonter/internal/shared"
)

// ReportInvalidator is notified after every successful write so cached
// report data can be discarded.
type ReportInvalidator interface {
	Bump(ctx context.Context) error
}

// Service handles ledger business logic: validation, the two-leg transfer,
// and debt status transitions.
type Service struct {
	repo   Repository
	cache  ReportInvalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo Repository, cache ReportInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// ListDeposits returns deposits newest first, optionally filtered.
func (s *Service) ListDeposits(ctx context.Context, ownerID int64, f DepositFilter) ([]CapitalDeposit, error) {
	return s.repo.ListDeposits(ctx, ownerID, f)
}

// RecordDeposit validates and persists a capital deposit.
func (s *Service) RecordDeposit(ctx context.Context, ownerID int64, in DepositInput) (*CapitalDeposit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	dep, err := s.repo.InsertDeposit(ctx, ownerID, in, nil)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return dep, nil
}

// UpdateDeposit validates and replaces an existing deposit.
func (s *Service) UpdateDeposit(ctx context.Context, ownerID, id int64, in DepositInput) (*CapitalDeposit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	dep, err := s.repo.UpdateDeposit(ctx, ownerID, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return dep, nil
}

// DeleteDeposit removes a deposit row.
func (s *Service) DeleteDeposit(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.DeleteDeposit(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Transfer moves capital between two funding sources by writing two deposit
// rows sharing one reference: a negative entry of amount plus fee on the
// origin, then a positive entry of amount on the destination. The rows are
// written independently; when the second write fails the first is left in
// place and a *shared.PartialTransferError is returned so the caller can
// compensate manually.
func (s *Service) Transfer(ctx context.Context, ownerID int64, in TransferInput) (origin, destination *CapitalDeposit, err error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	ref := uuid.New()

	outgoing := DepositInput{
		Amount:      in.Amount.Add(in.AdminFee).Neg(),
		AdminFee:    in.AdminFee,
		Source:      in.From,
		Note:        in.Note,
		DepositedAt: in.TransferredAt,
	}
	origin, err = s.repo.InsertDeposit(ctx, ownerID, outgoing, &ref)
	if err != nil {
		return nil, nil, fmt.Errorf("transfer origin leg: %w", err)
	}

	incoming := DepositInput{
		Amount:      in.Amount,
		Source:      in.To,
		Note:        in.Note,
		DepositedAt: in.TransferredAt,
	}
	destination, err = s.repo.InsertDeposit(ctx, ownerID, incoming, &ref)
	if err != nil {
		return origin, nil, &shared.PartialTransferError{
			TransferRef: ref,
			OriginLegID: origin.ID,
			FromSource:  string(in.From),
			ToSource:    string(in.To),
			Amount:      in.Amount,
			AdminFee:    in.AdminFee,
			Err:         err,
		}
	}
	s.invalidate(ctx)
	return origin, destination, nil
}

// ListExpenses returns expenses newest first, optionally filtered.
func (s *Service) ListExpenses(ctx context.Context, ownerID int64, f ExpenseFilter) ([]Expense, error) {
	return s.repo.ListExpenses(ctx, ownerID, f)
}

// RecordExpense validates and persists an expense. Expenses have immutable
// identity; the only mutation in scope is deletion.
func (s *Service) RecordExpense(ctx context.Context, ownerID int64, in ExpenseInput) (*Expense, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	exp, err := s.repo.InsertExpense(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return exp, nil
}

// DeleteExpense removes an expense row.
func (s *Service) DeleteExpense(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.DeleteExpense(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ListDebts returns debts newest first, optionally filtered by debt date,
// category and status.
func (s *Service) ListDebts(ctx context.Context, ownerID int64, f DebtFilter) ([]DebtRecord, error) {
	return s.repo.ListDebts(ctx, ownerID, f)
}

// RecordDebt validates and persists a new unpaid debt.
func (s *Service) RecordDebt(ctx context.Context, ownerID int64, in DebtInput) (*DebtRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	debt, err := s.repo.InsertDebt(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return debt, nil
}

// UpdateDebt validates and replaces an existing debt's details. Status is
// changed through SetDebtStatus only.
func (s *Service) UpdateDebt(ctx context.Context, ownerID, id int64, in DebtInput) (*DebtRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	debt, err := s.repo.UpdateDebt(ctx, ownerID, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return debt, nil
}

// SetDebtStatus flips a debt between Unpaid and Paid. Marking Paid stamps the
// payment instant; marking Unpaid clears it. Both directions are legal.
func (s *Service) SetDebtStatus(ctx context.Context, ownerID, id int64, status DebtStatus) (*DebtRecord, error) {
	var paidAt *time.Time
	switch status {
	case DebtPaid:
		now := s.now()
		paidAt = &now
	case DebtUnpaid:
		paidAt = nil
	default:
		return nil, fmt.Errorf("%w: debt status must be %s or %s", shared.ErrValidation, DebtUnpaid, DebtPaid)
	}
	debt, err := s.repo.SetDebtStatus(ctx, ownerID, id, status, paidAt)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return debt, nil
}

// DeleteDebt removes a debt row.
func (s *Service) DeleteDebt(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.DeleteDebt(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ListTransactions returns sale transactions newest first, optionally filtered.
func (s *Service) ListTransactions(ctx context.Context, ownerID int64, f TransactionFilter) ([]SaleTransaction, error) {
	return s.repo.ListTransactions(ctx, ownerID, f)
}

// RecordTransaction validates and persists a sale transaction.
func (s *Service) RecordTransaction(ctx context.Context, ownerID int64, in TransactionInput) (*SaleTransaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	txn, err := s.repo.InsertTransaction(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return txn, nil
}

// UpdateTransaction validates and replaces an existing sale transaction.
func (s *Service) UpdateTransaction(ctx context.Context, ownerID, id int64, in TransactionInput) (*SaleTransaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	txn, err := s.repo.UpdateTransaction(ctx, ownerID, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return txn, nil
}

// DeleteTransaction removes a sale transaction row.
func (s *Service) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.DeleteTransaction(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("report cache bump", slog.Any("error", err))
	}
}
