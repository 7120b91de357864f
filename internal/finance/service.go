package finance

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kaskonter/kaskonter/internal/ledger"
	"github.com/kaskonter/kaskonter/internal/period"
	"github.com/kaskonter/kaskonter/internal/shared"
)

// LedgerReader is the read side of the ledger store the engine consumes.
type LedgerReader interface {
	ListDeposits(ctx context.Context, ownerID int64, f ledger.DepositFilter) ([]ledger.CapitalDeposit, error)
	ListExpenses(ctx context.Context, ownerID int64, f ledger.ExpenseFilter) ([]ledger.Expense, error)
	ListDebts(ctx context.Context, ownerID int64, f ledger.DebtFilter) ([]ledger.DebtRecord, error)
	ListTransactions(ctx context.Context, ownerID int64, f ledger.TransactionFilter) ([]ledger.SaleTransaction, error)
}

// Service orchestrates fetching ledger rows and running aggregations and
// statement builds for a resolved period.
type Service struct {
	reader LedgerReader
	cache  *Cache
	now    func() time.Time
}

// NewService builds a Service instance. cache may be nil.
func NewService(reader LedgerReader, cache *Cache) *Service {
	return &Service{reader: reader, cache: cache, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// FetchRowSet issues the four independent ledger reads concurrently and
// awaits them jointly. When any single read fails the whole batch is
// discarded and the error wraps shared.ErrDataUnavailable; partial row sets
// are never returned.
func (s *Service) FetchRowSet(ctx context.Context, ownerID int64) (RowSet, error) {
	var rows RowSet
	success := ledger.TxnSuccess

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deposits, err := s.reader.ListDeposits(ctx, ownerID, ledger.DepositFilter{})
		if err != nil {
			return fmt.Errorf("%w: deposits: %v", shared.ErrDataUnavailable, err)
		}
		rows.Deposits = deposits
		return nil
	})
	g.Go(func() error {
		expenses, err := s.reader.ListExpenses(ctx, ownerID, ledger.ExpenseFilter{})
		if err != nil {
			return fmt.Errorf("%w: expenses: %v", shared.ErrDataUnavailable, err)
		}
		rows.Expenses = expenses
		return nil
	})
	g.Go(func() error {
		debts, err := s.reader.ListDebts(ctx, ownerID, ledger.DebtFilter{})
		if err != nil {
			return fmt.Errorf("%w: debts: %v", shared.ErrDataUnavailable, err)
		}
		rows.Debts = debts
		return nil
	})
	g.Go(func() error {
		txns, err := s.reader.ListTransactions(ctx, ownerID, ledger.TransactionFilter{Status: &success})
		if err != nil {
			return fmt.Errorf("%w: transactions: %v", shared.ErrDataUnavailable, err)
		}
		rows.Transactions = txns
		return nil
	})
	if err := g.Wait(); err != nil {
		return RowSet{}, err
	}
	return rows, nil
}

// Dashboard resolves the timeframe and aggregates the ledger for it.
func (s *Service) Dashboard(ctx context.Context, ownerID int64, tf period.Timeframe) (Summary, error) {
	rng, err := period.Resolve(tf, s.now())
	if err != nil {
		return Summary{}, err
	}

	loader := func(ctx context.Context) (interface{}, error) {
		rows, err := s.FetchRowSet(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return Aggregate(rng, rows, s.now()), nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return Summary{}, err
		}
		return value.(Summary), nil
	}

	key, err := s.cache.BuildKey(ctx, keyDashboard(ownerID, rng))
	if err != nil {
		return Summary{}, err
	}
	var sum Summary
	if err := s.cache.FetchJSON(ctx, key, &sum, loader); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// ProfitLoss builds the profit and loss statement for the timeframe.
func (s *Service) ProfitLoss(ctx context.Context, ownerID int64, tf period.Timeframe) (ProfitLoss, error) {
	rng, err := period.Resolve(tf, s.now())
	if err != nil {
		return ProfitLoss{}, err
	}

	loader := func(ctx context.Context) (interface{}, error) {
		rows, err := s.FetchRowSet(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		sum := Aggregate(rng, rows, s.now())
		return BuildProfitLoss(sum, rows)
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return ProfitLoss{}, err
		}
		return value.(ProfitLoss), nil
	}

	key, err := s.cache.BuildKey(ctx, keyStatement("pl", ownerID, rng))
	if err != nil {
		return ProfitLoss{}, err
	}
	var pl ProfitLoss
	if err := s.cache.FetchJSON(ctx, key, &pl, loader); err != nil {
		return ProfitLoss{}, err
	}
	return pl, nil
}

// CashFlow builds the cash flow statement for the timeframe.
func (s *Service) CashFlow(ctx context.Context, ownerID int64, tf period.Timeframe) (CashFlow, error) {
	rng, err := period.Resolve(tf, s.now())
	if err != nil {
		return CashFlow{}, err
	}

	loader := func(ctx context.Context) (interface{}, error) {
		rows, err := s.FetchRowSet(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		sum := Aggregate(rng, rows, s.now())
		return BuildCashFlow(sum, rows)
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return CashFlow{}, err
		}
		return value.(CashFlow), nil
	}

	key, err := s.cache.BuildKey(ctx, keyStatement("cf", ownerID, rng))
	if err != nil {
		return CashFlow{}, err
	}
	var cf CashFlow
	if err := s.cache.FetchJSON(ctx, key, &cf, loader); err != nil {
		return CashFlow{}, err
	}
	return cf, nil
}

func keyDashboard(ownerID int64, rng period.Range) string {
	return fmt.Sprintf("finance:dashboard:%d:%s:%s", ownerID,
		rng.Start.Format("20060102"), rng.End.Format("20060102"))
}

func keyStatement(kind string, ownerID int64, rng period.Range) string {
	return fmt.Sprintf("finance:%s:%d:%s:%s", kind, ownerID,
		rng.Start.Format("20060102"), rng.End.Format("20060102"))
}
