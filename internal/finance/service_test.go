package finance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaskonter/kaskonter/internal/ledger"
	"github.com/kaskonter/kaskonter/internal/period"
	"github.com/kaskonter/kaskonter/internal/shared"
)

type mockReader struct {
	mu    sync.Mutex
	rows  RowSet
	calls int

	depositsErr     error
	expensesErr     error
	debtsErr        error
	transactionsErr error
}

func (m *mockReader) inc() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *mockReader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockReader) ListDeposits(ctx context.Context, ownerID int64, f ledger.DepositFilter) ([]ledger.CapitalDeposit, error) {
	m.inc()
	return m.rows.Deposits, m.depositsErr
}

func (m *mockReader) ListExpenses(ctx context.Context, ownerID int64, f ledger.ExpenseFilter) ([]ledger.Expense, error) {
	m.inc()
	return m.rows.Expenses, m.expensesErr
}

func (m *mockReader) ListDebts(ctx context.Context, ownerID int64, f ledger.DebtFilter) ([]ledger.DebtRecord, error) {
	m.inc()
	return m.rows.Debts, m.debtsErr
}

func (m *mockReader) ListTransactions(ctx context.Context, ownerID int64, f ledger.TransactionFilter) ([]ledger.SaleTransaction, error) {
	m.inc()
	return m.rows.Transactions, m.transactionsErr
}

func fixedClock() time.Time { return asOf }

func testRows() RowSet {
	return RowSet{
		Deposits: []ledger.CapitalDeposit{
			{Amount: d(100000), Source: ledger.SourceCash, DepositedAt: inAug},
		},
		Transactions: []ledger.SaleTransaction{
			{SalePrice: d(15000), CostPrice: d(10000), Source: ledger.SourceCash, Status: ledger.TxnSuccess, SoldAt: inAug},
		},
	}
}

func TestFetchRowSetFailureDiscardsBatch(t *testing.T) {
	reader := &mockReader{rows: testRows(), debtsErr: errors.New("connection reset")}
	svc := NewService(reader, nil)

	_, err := svc.FetchRowSet(context.Background(), 1)
	require.ErrorIs(t, err, shared.ErrDataUnavailable)
}

func TestDashboardWithoutCache(t *testing.T) {
	reader := &mockReader{rows: testRows()}
	svc := NewService(reader, nil)
	svc.WithNow(fixedClock)

	sum, err := svc.Dashboard(context.Background(), 1, period.Timeframe{Kind: period.ThisMonth})
	require.NoError(t, err)

	requireAmount(t, 15000, sum.TotalRevenue)
	requireAmount(t, 100000, sum.TotalCapitalIn)
	assert.Equal(t, 4, reader.callCount())
}

func TestDashboardPropagatesDataUnavailable(t *testing.T) {
	reader := &mockReader{rows: testRows(), transactionsErr: errors.New("timeout")}
	svc := NewService(reader, nil)
	svc.WithNow(fixedClock)

	_, err := svc.Dashboard(context.Background(), 1, period.Timeframe{Kind: period.ThisMonth})
	require.ErrorIs(t, err, shared.ErrDataUnavailable)
}

func TestDashboardInvalidTimeframe(t *testing.T) {
	svc := NewService(&mockReader{}, nil)
	svc.WithNow(fixedClock)

	_, err := svc.Dashboard(context.Background(), 1, period.Timeframe{Kind: period.Kind("quarter")})
	require.ErrorIs(t, err, shared.ErrInvalidRange)
}

func TestDashboardServedFromCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reader := &mockReader{rows: testRows()}
	svc := NewService(reader, NewCache(client, time.Minute))
	svc.WithNow(fixedClock)

	tf := period.Timeframe{Kind: period.ThisMonth}
	first, err := svc.Dashboard(context.Background(), 1, tf)
	require.NoError(t, err)
	require.Equal(t, 4, reader.callCount())

	second, err := svc.Dashboard(context.Background(), 1, tf)
	require.NoError(t, err)
	assert.Equal(t, 4, reader.callCount(), "second read must come from cache")
	assert.True(t, first.TotalRevenue.Equal(second.TotalRevenue))
}

func TestDashboardCacheRetiredByBump(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewCache(client, time.Minute)
	reader := &mockReader{rows: testRows()}
	svc := NewService(reader, cache)
	svc.WithNow(fixedClock)

	tf := period.Timeframe{Kind: period.ThisMonth}
	_, err := svc.Dashboard(context.Background(), 1, tf)
	require.NoError(t, err)
	require.Equal(t, 4, reader.callCount())

	require.NoError(t, cache.Bump(context.Background()))

	_, err = svc.Dashboard(context.Background(), 1, tf)
	require.NoError(t, err)
	assert.Equal(t, 8, reader.callCount(), "bump must force a reload")
}

func TestDashboardDegradesWhenRedisDown(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	srv.Close()

	reader := &mockReader{rows: testRows()}
	svc := NewService(reader, NewCache(client, time.Minute))
	svc.WithNow(fixedClock)

	sum, err := svc.Dashboard(context.Background(), 1, period.Timeframe{Kind: period.ThisMonth})
	require.NoError(t, err, "a redis outage must not take the reports down")

	requireAmount(t, 15000, sum.TotalRevenue)
	assert.Equal(t, 4, reader.callCount())
}

func TestProfitLossAndCashFlowRoundTripThroughCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reader := &mockReader{rows: testRows()}
	svc := NewService(reader, NewCache(client, time.Minute))
	svc.WithNow(fixedClock)

	tf := period.Timeframe{Kind: period.ThisMonth}

	pl, err := svc.ProfitLoss(context.Background(), 1, tf)
	require.NoError(t, err)
	plCached, err := svc.ProfitLoss(context.Background(), 1, tf)
	require.NoError(t, err)
	assert.True(t, pl.NetProfit.Equal(plCached.NetProfit))
	assert.Len(t, plCached.AdminFee.Items, 4)

	cf, err := svc.CashFlow(context.Background(), 1, tf)
	require.NoError(t, err)
	cfCached, err := svc.CashFlow(context.Background(), 1, tf)
	require.NoError(t, err)
	assert.True(t, cf.NetChange.Equal(cfCached.NetChange))
}
