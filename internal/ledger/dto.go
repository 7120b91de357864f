package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kaskonter/kaskonter/internal/shared"
)

// DepositInput groups fields for creating or replacing a capital deposit.
type DepositInput struct {
	Amount      decimal.Decimal
	AdminFee    decimal.Decimal
	Source      FundingSource
	Note        string
	DepositedAt time.Time
}

// Validate checks domain constraints before any write.
func (in DepositInput) Validate() error {
	if !in.Source.Valid() {
		return fmt.Errorf("%w: unknown funding source %q", shared.ErrValidation, in.Source)
	}
	if in.Amount.IsZero() {
		return fmt.Errorf("%w: deposit amount must not be zero", shared.ErrValidation)
	}
	if in.AdminFee.IsNegative() {
		return fmt.Errorf("%w: admin fee must not be negative", shared.ErrValidation)
	}
	if in.DepositedAt.IsZero() {
		return fmt.Errorf("%w: deposit date required", shared.ErrValidation)
	}
	return nil
}

// TransferInput describes a movement of capital between two funding sources.
// It is persisted as two deposit rows sharing a transfer reference.
type TransferInput struct {
	From          FundingSource
	To            FundingSource
	Amount        decimal.Decimal
	AdminFee      decimal.Decimal
	Note          string
	TransferredAt time.Time
}

// Validate checks domain constraints before any write.
func (in TransferInput) Validate() error {
	if !in.From.Valid() || !in.To.Valid() {
		return fmt.Errorf("%w: unknown funding source", shared.ErrValidation)
	}
	if in.From == in.To {
		return fmt.Errorf("%w: transfer requires two distinct sources", shared.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: transfer amount must be positive", shared.ErrValidation)
	}
	if in.AdminFee.IsNegative() {
		return fmt.Errorf("%w: admin fee must not be negative", shared.ErrValidation)
	}
	if in.TransferredAt.IsZero() {
		return fmt.Errorf("%w: transfer date required", shared.ErrValidation)
	}
	return nil
}

// ExpenseInput groups fields for recording an expense. The note is mandatory.
type ExpenseInput struct {
	Amount   decimal.Decimal
	Category ExpenseCategory
	Source   FundingSource
	Note     string
	SpentAt  time.Time
}

// Validate checks domain constraints before any write.
func (in ExpenseInput) Validate() error {
	if !in.Source.Valid() {
		return fmt.Errorf("%w: unknown funding source %q", shared.ErrValidation, in.Source)
	}
	if !in.Category.Valid() {
		return fmt.Errorf("%w: unknown expense category %q", shared.ErrValidation, in.Category)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: expense amount must be positive", shared.ErrValidation)
	}
	if in.Note == "" {
		return fmt.Errorf("%w: expense note required", shared.ErrValidation)
	}
	if in.SpentAt.IsZero() {
		return fmt.Errorf("%w: expense date required", shared.ErrValidation)
	}
	return nil
}

// DebtInput groups fields for creating or replacing a debt record. Business
// debts require a debtor name, personal debts require a note.
type DebtInput struct {
	Principal  decimal.Decimal
	Category   DebtCategory
	Source     FundingSource
	DebtorName string
	Note       string
	DebtDate   time.Time
	DueDate    *time.Time
}

// Validate checks domain constraints before any write.
func (in DebtInput) Validate() error {
	if !in.Source.Valid() {
		return fmt.Errorf("%w: unknown funding source %q", shared.ErrValidation, in.Source)
	}
	if !in.Category.Valid() {
		return fmt.Errorf("%w: unknown debt category %q", shared.ErrValidation, in.Category)
	}
	if !in.Principal.IsPositive() {
		return fmt.Errorf("%w: debt principal must be positive", shared.ErrValidation)
	}
	if in.Category == DebtBusiness && in.DebtorName == "" {
		return fmt.Errorf("%w: business debt requires a debtor name", shared.ErrValidation)
	}
	if in.Category == DebtPersonal && in.Note == "" {
		return fmt.Errorf("%w: personal debt requires a note", shared.ErrValidation)
	}
	if in.DebtDate.IsZero() {
		return fmt.Errorf("%w: debt date required", shared.ErrValidation)
	}
	if in.DueDate != nil && in.DueDate.Before(in.DebtDate) {
		return fmt.Errorf("%w: due date before debt date", shared.ErrValidation)
	}
	return nil
}

// TransactionInput groups fields for creating or replacing a sale transaction.
type TransactionInput struct {
	SalePrice  decimal.Decimal
	CostPrice  decimal.Decimal
	Nominal    string
	Source     FundingSource
	Status     TransactionStatus
	DebtorName string
	SoldAt     time.Time
}

// Validate checks domain constraints before any write.
func (in TransactionInput) Validate() error {
	if !in.Source.Valid() {
		return fmt.Errorf("%w: unknown funding source %q", shared.ErrValidation, in.Source)
	}
	if !in.Status.Valid() {
		return fmt.Errorf("%w: unknown transaction status %q", shared.ErrValidation, in.Status)
	}
	if in.SalePrice.IsNegative() {
		return fmt.Errorf("%w: sale price must not be negative", shared.ErrValidation)
	}
	if in.CostPrice.IsNegative() {
		return fmt.Errorf("%w: cost price must not be negative", shared.ErrValidation)
	}
	if in.SoldAt.IsZero() {
		return fmt.Errorf("%w: transaction date required", shared.ErrValidation)
	}
	return nil
}
