package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaskonter/kaskonter/internal/shared"
)

type memoryRepo struct {
	deposits     map[int64]*CapitalDeposit
	expenses     map[int64]*Expense
	debts        map[int64]*DebtRecord
	transactions map[int64]*SaleTransaction
	nextID       int64

	insertDepositErrAfter int // fail the nth insert, 0 disables
	depositInserts        int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		deposits:     make(map[int64]*CapitalDeposit),
		expenses:     make(map[int64]*Expense),
		debts:        make(map[int64]*DebtRecord),
		transactions: make(map[int64]*SaleTransaction),
		nextID:       1,
	}
}

func (m *memoryRepo) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memoryRepo) ListDeposits(ctx context.Context, ownerID int64, f DepositFilter) ([]CapitalDeposit, error) {
	var out []CapitalDeposit
	for _, d := range m.deposits {
		if d.OwnerID == ownerID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memoryRepo) InsertDeposit(ctx context.Context, ownerID int64, in DepositInput, transferRef *uuid.UUID) (*CapitalDeposit, error) {
	m.depositInserts++
	if m.insertDepositErrAfter > 0 && m.depositInserts >= m.insertDepositErrAfter {
		return nil, errors.New("connection reset")
	}
	d := &CapitalDeposit{
		ID:          m.id(),
		OwnerID:     ownerID,
		Amount:      in.Amount,
		AdminFee:    in.AdminFee,
		Source:      in.Source,
		Note:        in.Note,
		TransferRef: transferRef,
		DepositedAt: in.DepositedAt,
	}
	m.deposits[d.ID] = d
	return d, nil
}

func (m *memoryRepo) UpdateDeposit(ctx context.Context, ownerID, id int64, in DepositInput) (*CapitalDeposit, error) {
	d, ok := m.deposits[id]
	if !ok || d.OwnerID != ownerID {
		return nil, shared.ErrNotFound
	}
	d.Amount, d.AdminFee, d.Source, d.Note, d.DepositedAt = in.Amount, in.AdminFee, in.Source, in.Note, in.DepositedAt
	return d, nil
}

func (m *memoryRepo) DeleteDeposit(ctx context.Context, ownerID, id int64) error {
	if d, ok := m.deposits[id]; !ok || d.OwnerID != ownerID {
		return shared.ErrNotFound
	}
	delete(m.deposits, id)
	return nil
}

func (m *memoryRepo) ListExpenses(ctx context.Context, ownerID int64, f ExpenseFilter) ([]Expense, error) {
	var out []Expense
	for _, e := range m.expenses {
		if e.OwnerID == ownerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memoryRepo) InsertExpense(ctx context.Context, ownerID int64, in ExpenseInput) (*Expense, error) {
	e := &Expense{ID: m.id(), OwnerID: ownerID, Amount: in.Amount, Category: in.Category, Source: in.Source, Note: in.Note, SpentAt: in.SpentAt}
	m.expenses[e.ID] = e
	return e, nil
}

func (m *memoryRepo) DeleteExpense(ctx context.Context, ownerID, id int64) error {
	if e, ok := m.expenses[id]; !ok || e.OwnerID != ownerID {
		return shared.ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *memoryRepo) ListDebts(ctx context.Context, ownerID int64, f DebtFilter) ([]DebtRecord, error) {
	var out []DebtRecord
	for _, d := range m.debts {
		if d.OwnerID != ownerID {
			continue
		}
		if f.Status != nil && d.Status != *f.Status {
			continue
		}
		if f.Category != nil && d.Category != *f.Category {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (m *memoryRepo) InsertDebt(ctx context.Context, ownerID int64, in DebtInput) (*DebtRecord, error) {
	d := &DebtRecord{
		ID:         m.id(),
		OwnerID:    ownerID,
		Principal:  in.Principal,
		Category:   in.Category,
		Status:     DebtUnpaid,
		Source:     in.Source,
		DebtorName: in.DebtorName,
		Note:       in.Note,
		DebtDate:   in.DebtDate,
		DueDate:    in.DueDate,
	}
	m.debts[d.ID] = d
	return d, nil
}

func (m *memoryRepo) UpdateDebt(ctx context.Context, ownerID, id int64, in DebtInput) (*DebtRecord, error) {
	d, ok := m.debts[id]
	if !ok || d.OwnerID != ownerID {
		return nil, shared.ErrNotFound
	}
	d.Principal, d.Category, d.Source = in.Principal, in.Category, in.Source
	d.DebtorName, d.Note, d.DebtDate, d.DueDate = in.DebtorName, in.Note, in.DebtDate, in.DueDate
	return d, nil
}

func (m *memoryRepo) SetDebtStatus(ctx context.Context, ownerID, id int64, status DebtStatus, paidAt *time.Time) (*DebtRecord, error) {
	d, ok := m.debts[id]
	if !ok || d.OwnerID != ownerID {
		return nil, shared.ErrNotFound
	}
	d.Status = status
	d.PaidAt = paidAt
	return d, nil
}

func (m *memoryRepo) DeleteDebt(ctx context.Context, ownerID, id int64) error {
	if d, ok := m.debts[id]; !ok || d.OwnerID != ownerID {
		return shared.ErrNotFound
	}
	delete(m.debts, id)
	return nil
}

func (m *memoryRepo) ListTransactions(ctx context.Context, ownerID int64, f TransactionFilter) ([]SaleTransaction, error) {
	var out []SaleTransaction
	for _, t := range m.transactions {
		if t.OwnerID != ownerID {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *memoryRepo) InsertTransaction(ctx context.Context, ownerID int64, in TransactionInput) (*SaleTransaction, error) {
	t := &SaleTransaction{
		ID:         m.id(),
		OwnerID:    ownerID,
		SalePrice:  in.SalePrice,
		CostPrice:  in.CostPrice,
		Nominal:    in.Nominal,
		Source:     in.Source,
		Status:     in.Status,
		DebtorName: in.DebtorName,
		SoldAt:     in.SoldAt,
	}
	m.transactions[t.ID] = t
	return t, nil
}

func (m *memoryRepo) UpdateTransaction(ctx context.Context, ownerID, id int64, in TransactionInput) (*SaleTransaction, error) {
	t, ok := m.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return nil, shared.ErrNotFound
	}
	t.SalePrice, t.CostPrice, t.Nominal = in.SalePrice, in.CostPrice, in.Nominal
	t.Source, t.Status, t.DebtorName, t.SoldAt = in.Source, in.Status, in.DebtorName, in.SoldAt
	return t, nil
}

func (m *memoryRepo) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	if t, ok := m.transactions[id]; !ok || t.OwnerID != ownerID {
		return shared.ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

type countingInvalidator struct {
	bumps int
	err   error
}

func (c *countingInvalidator) Bump(ctx context.Context) error {
	c.bumps++
	return c.err
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const owner = int64(1)

var when = time.Date(2025, time.August, 5, 10, 0, 0, 0, time.UTC)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestRecordDepositValidatesInput(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, testLogger)

	_, err := svc.RecordDeposit(context.Background(), owner, DepositInput{
		Amount: dec(1000), Source: FundingSource("GOLD_BARS"), DepositedAt: when,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordDeposit(context.Background(), owner, DepositInput{
		Amount: decimal.Zero, Source: SourceCash, DepositedAt: when,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordDepositBumpsCache(t *testing.T) {
	inv := &countingInvalidator{}
	svc := NewService(newMemoryRepo(), inv, testLogger)

	_, err := svc.RecordDeposit(context.Background(), owner, DepositInput{
		Amount: dec(50000), Source: SourceCash, DepositedAt: when,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inv.bumps)
}

func TestCacheBumpFailureDoesNotFailWrite(t *testing.T) {
	inv := &countingInvalidator{err: errors.New("redis down")}
	svc := NewService(newMemoryRepo(), inv, testLogger)

	_, err := svc.RecordDeposit(context.Background(), owner, DepositInput{
		Amount: dec(50000), Source: SourceCash, DepositedAt: when,
	})
	require.NoError(t, err)
}

func TestTransferWritesTwoLegsSharingOneRef(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, testLogger)

	origin, destination, err := svc.Transfer(context.Background(), owner, TransferInput{
		From: SourceCash, To: SourceEWallet,
		Amount: dec(20000), AdminFee: dec(1500),
		TransferredAt: when,
	})
	require.NoError(t, err)

	assert.True(t, origin.Amount.Equal(dec(-21500)), "origin leg carries amount plus fee, negated: %s", origin.Amount)
	assert.True(t, origin.AdminFee.Equal(dec(1500)))
	assert.True(t, destination.Amount.Equal(dec(20000)))
	require.NotNil(t, origin.TransferRef)
	require.NotNil(t, destination.TransferRef)
	assert.Equal(t, *origin.TransferRef, *destination.TransferRef)
	assert.Len(t, repo.deposits, 2)
}

func TestTransferRejectsSameSource(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, testLogger)

	_, _, err := svc.Transfer(context.Background(), owner, TransferInput{
		From: SourceCash, To: SourceCash, Amount: dec(1000), TransferredAt: when,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestTransferSecondLegFailureLeavesOriginInPlace(t *testing.T) {
	repo := newMemoryRepo()
	repo.insertDepositErrAfter = 2
	svc := NewService(repo, nil, testLogger)

	origin, destination, err := svc.Transfer(context.Background(), owner, TransferInput{
		From: SourceCash, To: SourceBankWallet,
		Amount: dec(20000), AdminFee: dec(1500),
		TransferredAt: when,
	})

	var partial *shared.PartialTransferError
	require.ErrorAs(t, err, &partial)
	assert.Nil(t, destination)
	require.NotNil(t, origin)
	assert.Equal(t, origin.ID, partial.OriginLegID)
	assert.Equal(t, string(SourceCash), partial.FromSource)
	assert.Equal(t, string(SourceBankWallet), partial.ToSource)
	assert.True(t, partial.Amount.Equal(dec(20000)))

	// The origin leg is not rolled back.
	assert.Len(t, repo.deposits, 1)
}

func TestRecordExpenseRequiresNote(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, testLogger)

	_, err := svc.RecordExpense(context.Background(), owner, ExpenseInput{
		Amount: dec(2000), Category: ExpenseBusiness, Source: SourceCash, SpentAt: when,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordDebtCategoryFieldRules(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, testLogger)

	_, err := svc.RecordDebt(context.Background(), owner, DebtInput{
		Principal: dec(10000), Category: DebtBusiness, Source: SourceCash, DebtDate: when,
	})
	require.ErrorIs(t, err, shared.ErrValidation, "business debt needs a debtor name")

	_, err = svc.RecordDebt(context.Background(), owner, DebtInput{
		Principal: dec(10000), Category: DebtPersonal, Source: SourceCash, DebtDate: when,
	})
	require.ErrorIs(t, err, shared.ErrValidation, "personal debt needs a note")

	debt, err := svc.RecordDebt(context.Background(), owner, DebtInput{
		Principal: dec(10000), Category: DebtBusiness, Source: SourceCash, DebtorName: "Pak Budi", DebtDate: when,
	})
	require.NoError(t, err)
	assert.Equal(t, DebtUnpaid, debt.Status)
}

func TestSetDebtStatusRoundTrip(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, testLogger)
	svc.WithNow(func() time.Time { return when })

	debt, err := svc.RecordDebt(context.Background(), owner, DebtInput{
		Principal: dec(10000), Category: DebtBusiness, Source: SourceCash, DebtorName: "Pak Budi", DebtDate: when,
	})
	require.NoError(t, err)

	paid, err := svc.SetDebtStatus(context.Background(), owner, debt.ID, DebtPaid)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, when, *paid.PaidAt)

	unpaid, err := svc.SetDebtStatus(context.Background(), owner, debt.ID, DebtUnpaid)
	require.NoError(t, err)
	assert.Nil(t, unpaid.PaidAt)
}

func TestSetDebtStatusRejectsOverdue(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, testLogger)

	_, err := svc.SetDebtStatus(context.Background(), owner, 1, DebtOverdue)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDebtClassifyOverdueIsDisplayOnly(t *testing.T) {
	due := when.AddDate(0, 0, 7)
	debt := DebtRecord{Status: DebtUnpaid, DueDate: &due}

	assert.Equal(t, DebtUnpaid, debt.Classify(when))
	assert.Equal(t, DebtOverdue, debt.Classify(due.AddDate(0, 0, 1)))

	debt.Status = DebtPaid
	assert.Equal(t, DebtPaid, debt.Classify(due.AddDate(0, 0, 1)))
}

func TestDeleteMissingRowReturnsNotFound(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, testLogger)

	require.ErrorIs(t, svc.DeleteDeposit(context.Background(), owner, 99), shared.ErrNotFound)
	require.ErrorIs(t, svc.DeleteExpense(context.Background(), owner, 99), shared.ErrNotFound)
	require.ErrorIs(t, svc.DeleteDebt(context.Background(), owner, 99), shared.ErrNotFound)
	require.ErrorIs(t, svc.DeleteTransaction(context.Background(), owner, 99), shared.ErrNotFound)
}

func TestRecordTransactionAllowsPendingAndFailed(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, testLogger)

	for _, status := range []TransactionStatus{TxnSuccess, TxnPending, TxnFailed} {
		_, err := svc.RecordTransaction(context.Background(), owner, TransactionInput{
			SalePrice: dec(15000), CostPrice: dec(10000), Nominal: "10K",
			Source: SourceCash, Status: status, SoldAt: when,
		})
		require.NoError(t, err)
	}

	_, err := svc.RecordTransaction(context.Background(), owner, TransactionInput{
		SalePrice: dec(15000), CostPrice: dec(10000),
		Source: SourceCash, Status: TransactionStatus("REFUNDED"), SoldAt: when,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}
