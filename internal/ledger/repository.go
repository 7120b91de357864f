package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaskonter/kaskonter/internal/period"
	"github.com/kaskonter/kaskonter/internal/shared"
)

// DepositFilter narrows deposit listings. A nil field means no filter.
// Date-range filters are inclusive of both bounds.
type DepositFilter struct {
	Range  *period.Range
	Source *FundingSource
}

// ExpenseFilter narrows expense listings.
type ExpenseFilter struct {
	Range    *period.Range
	Category *ExpenseCategory
	Source   *FundingSource
}

// DebtFilter narrows debt listings. The range applies to the debt date.
type DebtFilter struct {
	Range    *period.Range
	Category *DebtCategory
	Status   *DebtStatus
}

// TransactionFilter narrows sale transaction listings.
type TransactionFilter struct {
	Range  *period.Range
	Source *FundingSource
	Status *TransactionStatus
}

// Repository defines data access for all four row kinds.
type Repository interface {
	ListDeposits(ctx context.Context, ownerID int64, f DepositFilter) ([]CapitalDeposit, error)
	InsertDeposit(ctx context.Context, ownerID int64, in DepositInput, transferRef *uuid.UUID) (*CapitalDeposit, error)
	UpdateDeposit(ctx context.Context, ownerID, id int64, in DepositInput) (*CapitalDeposit, error)
	DeleteDeposit(ctx context.Context, ownerID, id int64) error

	ListExpenses(ctx context.Context, ownerID int64, f ExpenseFilter) ([]Expense, error)
	InsertExpense(ctx context.Context, ownerID int64, in ExpenseInput) (*Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id int64) error

	ListDebts(ctx context.Context, ownerID int64, f DebtFilter) ([]DebtRecord, error)
	InsertDebt(ctx context.Context, ownerID int64, in DebtInput) (*DebtRecord, error)
	UpdateDebt(ctx context.Context, ownerID, id int64, in DebtInput) (*DebtRecord, error)
	SetDebtStatus(ctx context.Context, ownerID, id int64, status DebtStatus, paidAt *time.Time) (*DebtRecord, error)
	DeleteDebt(ctx context.Context, ownerID, id int64) error

	ListTransactions(ctx context.Context, ownerID int64, f TransactionFilter) ([]SaleTransaction, error)
	InsertTransaction(ctx context.Context, ownerID int64, in TransactionInput) (*SaleTransaction, error)
	UpdateTransaction(ctx context.Context, ownerID, id int64, in TransactionInput) (*SaleTransaction, error)
	DeleteTransaction(ctx context.Context, ownerID, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed ledger store.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const depositColumns = "id, owner_id, amount, admin_fee, source, note, transfer_ref, deposited_at, created_at, updated_at"

func (r *repository) ListDeposits(ctx context.Context, ownerID int64, f DepositFilter) ([]CapitalDeposit, error) {
	query := "SELECT " + depositColumns + " FROM capital_deposits WHERE owner_id = $1"
	args := []any{ownerID}
	query, args = appendRange(query, args, "deposited_at", f.Range)
	if f.Source != nil {
		args = append(args, *f.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	query += " ORDER BY deposited_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CapitalDeposit
	for rows.Next() {
		var d CapitalDeposit
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Amount, &d.AdminFee, &d.Source, &d.Note, &d.TransferRef, &d.DepositedAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repository) InsertDeposit(ctx context.Context, ownerID int64, in DepositInput, transferRef *uuid.UUID) (*CapitalDeposit, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO capital_deposits (owner_id, amount, admin_fee, source, note, transfer_ref, deposited_at)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+depositColumns,
		ownerID, in.Amount, in.AdminFee, in.Source, in.Note, transferRef, in.DepositedAt)
	return scanDeposit(row)
}

func (r *repository) UpdateDeposit(ctx context.Context, ownerID, id int64, in DepositInput) (*CapitalDeposit, error) {
	row := r.db.QueryRow(ctx, `UPDATE capital_deposits
SET amount = $3, admin_fee = $4, source = $5, note = $6, deposited_at = $7, updated_at = now()
WHERE owner_id = $1 AND id = $2 RETURNING `+depositColumns,
		ownerID, id, in.Amount, in.AdminFee, in.Source, in.Note, in.DepositedAt)
	return scanDeposit(row)
}

func (r *repository) DeleteDeposit(ctx context.Context, ownerID, id int64) error {
	return r.deleteRow(ctx, "capital_deposits", ownerID, id)
}

const expenseColumns = "id, owner_id, amount, category, source, note, spent_at, created_at"

func (r *repository) ListExpenses(ctx context.Context, ownerID int64, f ExpenseFilter) ([]Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses WHERE owner_id = $1"
	args := []any{ownerID}
	query, args = appendRange(query, args, "spent_at", f.Range)
	if f.Category != nil {
		args = append(args, *f.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Source != nil {
		args = append(args, *f.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	query += " ORDER BY spent_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Amount, &e.Category, &e.Source, &e.Note, &e.SpentAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) InsertExpense(ctx context.Context, ownerID int64, in ExpenseInput) (*Expense, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO expenses (owner_id, amount, category, source, note, spent_at)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING `+expenseColumns,
		ownerID, in.Amount, in.Category, in.Source, in.Note, in.SpentAt)
	return scanExpense(row)
}

func (r *repository) DeleteExpense(ctx context.Context, ownerID, id int64) error {
	return r.deleteRow(ctx, "expenses", ownerID, id)
}

const debtColumns = "id, owner_id, principal, category, status, source, debtor_name, note, debt_date, due_date, paid_at, created_at, updated_at"

func (r *repository) ListDebts(ctx context.Context, ownerID int64, f DebtFilter) ([]DebtRecord, error) {
	query := "SELECT " + debtColumns + " FROM debt_records WHERE owner_id = $1"
	args := []any{ownerID}
	query, args = appendRange(query, args, "debt_date", f.Range)
	if f.Category != nil {
		args = append(args, *f.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY debt_date DESC, id DESC"
	return r.queryDebts(ctx, query, args...)
}

func (r *repository) queryDebts(ctx context.Context, query string, args ...any) ([]DebtRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DebtRecord
	for rows.Next() {
		var d DebtRecord
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Principal, &d.Category, &d.Status, &d.Source, &d.DebtorName, &d.Note, &d.DebtDate, &d.DueDate, &d.PaidAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repository) InsertDebt(ctx context.Context, ownerID int64, in DebtInput) (*DebtRecord, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO debt_records (owner_id, principal, category, status, source, debtor_name, note, debt_date, due_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING `+debtColumns,
		ownerID, in.Principal, in.Category, DebtUnpaid, in.Source, in.DebtorName, in.Note, in.DebtDate, in.DueDate)
	return scanDebt(row)
}

func (r *repository) UpdateDebt(ctx context.Context, ownerID, id int64, in DebtInput) (*DebtRecord, error) {
	row := r.db.QueryRow(ctx, `UPDATE debt_records
SET principal = $3, category = $4, source = $5, debtor_name = $6, note = $7, debt_date = $8, due_date = $9, updated_at = now()
WHERE owner_id = $1 AND id = $2 RETURNING `+debtColumns,
		ownerID, id, in.Principal, in.Category, in.Source, in.DebtorName, in.Note, in.DebtDate, in.DueDate)
	return scanDebt(row)
}

func (r *repository) SetDebtStatus(ctx context.Context, ownerID, id int64, status DebtStatus, paidAt *time.Time) (*DebtRecord, error) {
	row := r.db.QueryRow(ctx, `UPDATE debt_records
SET status = $3, paid_at = $4, updated_at = now()
WHERE owner_id = $1 AND id = $2 RETURNING `+debtColumns,
		ownerID, id, status, paidAt)
	return scanDebt(row)
}

func (r *repository) DeleteDebt(ctx context.Context, ownerID, id int64) error {
	return r.deleteRow(ctx, "debt_records", ownerID, id)
}

const txnColumns = "id, owner_id, sale_price, cost_price, nominal, source, status, debtor_name, sold_at, created_at, updated_at"

func (r *repository) ListTransactions(ctx context.Context, ownerID int64, f TransactionFilter) ([]SaleTransaction, error) {
	query := "SELECT " + txnColumns + " FROM sale_transactions WHERE owner_id = $1"
	args := []any{ownerID}
	query, args = appendRange(query, args, "sold_at", f.Range)
	if f.Source != nil {
		args = append(args, *f.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY sold_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SaleTransaction
	for rows.Next() {
		var t SaleTransaction
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.SalePrice, &t.CostPrice, &t.Nominal, &t.Source, &t.Status, &t.DebtorName, &t.SoldAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) InsertTransaction(ctx context.Context, ownerID int64, in TransactionInput) (*SaleTransaction, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO sale_transactions (owner_id, sale_price, cost_price, nominal, source, status, debtor_name, sold_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING `+txnColumns,
		ownerID, in.SalePrice, in.CostPrice, in.Nominal, in.Source, in.Status, in.DebtorName, in.SoldAt)
	return scanTransaction(row)
}

func (r *repository) UpdateTransaction(ctx context.Context, ownerID, id int64, in TransactionInput) (*SaleTransaction, error) {
	row := r.db.QueryRow(ctx, `UPDATE sale_transactions
SET sale_price = $3, cost_price = $4, nominal = $5, source = $6, status = $7, debtor_name = $8, sold_at = $9, updated_at = now()
WHERE owner_id = $1 AND id = $2 RETURNING `+txnColumns,
		ownerID, id, in.SalePrice, in.CostPrice, in.Nominal, in.Source, in.Status, in.DebtorName, in.SoldAt)
	return scanTransaction(row)
}

func (r *repository) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	return r.deleteRow(ctx, "sale_transactions", ownerID, id)
}

func (r *repository) deleteRow(ctx context.Context, table string, ownerID, id int64) error {
	if strings.ContainsAny(table, " ;") {
		return fmt.Errorf("ledger: bad table name %q", table)
	}
	tag, err := r.db.Exec(ctx, "DELETE FROM "+table+" WHERE owner_id = $1 AND id = $2", ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// appendRange adds inclusive bounds on the given date column.
func appendRange(query string, args []any, column string, rng *period.Range) (string, []any) {
	if rng == nil {
		return query, args
	}
	args = append(args, rng.Start)
	query += fmt.Sprintf(" AND %s >= $%d", column, len(args))
	args = append(args, rng.End)
	query += fmt.Sprintf(" AND %s <= $%d", column, len(args))
	return query, args
}

func scanDeposit(row pgx.Row) (*CapitalDeposit, error) {
	var d CapitalDeposit
	if err := row.Scan(&d.ID, &d.OwnerID, &d.Amount, &d.AdminFee, &d.Source, &d.Note, &d.TransferRef, &d.DepositedAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	return &d, nil
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Amount, &e.Category, &e.Source, &e.Note, &e.SpentAt, &e.CreatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	return &e, nil
}

func scanDebt(row pgx.Row) (*DebtRecord, error) {
	var d DebtRecord
	if err := row.Scan(&d.ID, &d.OwnerID, &d.Principal, &d.Category, &d.Status, &d.Source, &d.DebtorName, &d.Note, &d.DebtDate, &d.DueDate, &d.PaidAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	return &d, nil
}

func scanTransaction(row pgx.Row) (*SaleTransaction, error) {
	var t SaleTransaction
	if err := row.Scan(&t.ID, &t.OwnerID, &t.SalePrice, &t.CostPrice, &t.Nominal, &t.Source, &t.Status, &t.DebtorName, &t.SoldAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, mapRowErr(err)
	}
	return &t, nil
}

// mapRowErr translates driver errors into domain errors. Rows rejected by a
// schema CHECK constraint surface as validation failures, matching what the
// service-level Validate calls would have reported.
func mapRowErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s", shared.ErrValidation, pgErr.Message)
	}
	return err
}
