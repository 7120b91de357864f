// Package ledger holds the bookkeeping row kinds and their persistence port.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundingSource enumerates where money is held. Every monetary row belongs to
// exactly one source.
type FundingSource string

const (
	SourceCash        FundingSource = "CASH"
	SourceBankWallet  FundingSource = "BANK_WALLET"
	SourceEWallet     FundingSource = "E_WALLET"
	SourcePulsaAppBal FundingSource = "PULSA_APP_BALANCE"
)

// FundingSources lists all sources in display order.
func FundingSources() []FundingSource {
	return []FundingSource{SourceCash, SourceBankWallet, SourceEWallet, SourcePulsaAppBal}
}

// Valid reports whether s is a known funding source.
func (s FundingSource) Valid() bool {
	switch s {
	case SourceCash, SourceBankWallet, SourceEWallet, SourcePulsaAppBal:
		return true
	}
	return false
}

// ExpenseCategory splits expenses into business and personal spend.
type ExpenseCategory string

const (
	ExpenseBusiness ExpenseCategory = "BUSINESS"
	ExpensePersonal ExpenseCategory = "PERSONAL"
)

// Valid reports whether c is a known expense category.
func (c ExpenseCategory) Valid() bool {
	return c == ExpenseBusiness || c == ExpensePersonal
}

// DebtCategory splits debt records into business and personal lending.
type DebtCategory string

const (
	DebtBusiness DebtCategory = "BUSINESS"
	DebtPersonal DebtCategory = "PERSONAL"
)

// Valid reports whether c is a known debt category.
func (c DebtCategory) Valid() bool {
	return c == DebtBusiness || c == DebtPersonal
}

// DebtStatus enumerates persisted debt states. Overdue is a display
// classification only and is never stored.
type DebtStatus string

const (
	DebtUnpaid  DebtStatus = "UNPAID"
	DebtPaid    DebtStatus = "PAID"
	DebtOverdue DebtStatus = "OVERDUE"
)

// TransactionStatus enumerates sale transaction states. Only Success rows
// participate in financial aggregation.
type TransactionStatus string

const (
	TxnSuccess TransactionStatus = "SUCCESS"
	TxnPending TransactionStatus = "PENDING"
	TxnFailed  TransactionStatus = "FAILED"
)

// Valid reports whether s is a known transaction status.
func (s TransactionStatus) Valid() bool {
	return s == TxnSuccess || s == TxnPending || s == TxnFailed
}

// CapitalDeposit records capital entering or leaving a funding source.
// A negative amount represents the outgoing leg of a transfer between
// sources; transfer legs share a TransferRef.
type CapitalDeposit struct {
	ID          int64
	OwnerID     int64
	Amount      decimal.Decimal
	AdminFee    decimal.Decimal
	Source      FundingSource
	Note        string
	TransferRef *uuid.UUID
	DepositedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Expense records money spent from a funding source.
type Expense struct {
	ID        int64
	OwnerID   int64
	Amount    decimal.Decimal
	Category  ExpenseCategory
	Source    FundingSource
	Note      string
	SpentAt   time.Time
	CreatedAt time.Time
}

// DebtRecord records credit the business extended. Business debts carry a
// debtor name; personal debts carry a free-text note instead.
type DebtRecord struct {
	ID         int64
	OwnerID    int64
	Principal  decimal.Decimal
	Category   DebtCategory
	Status     DebtStatus
	Source     FundingSource
	DebtorName string
	Note       string
	DebtDate   time.Time
	DueDate    *time.Time
	PaidAt     *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Classify returns the display status for a debt: Overdue when unpaid with a
// due date in the past, otherwise the stored status. Aggregate sums are
// unaffected by this classification.
func (d DebtRecord) Classify(now time.Time) DebtStatus {
	if d.Status == DebtUnpaid && d.DueDate != nil && d.DueDate.Before(now) {
		return DebtOverdue
	}
	return d.Status
}

// SaleTransaction records one sale at the counter. Nominal holds the product
// denomination (e.g. "25K") and is not used in aggregation.
type SaleTransaction struct {
	ID         int64
	OwnerID    int64
	SalePrice  decimal.Decimal
	CostPrice  decimal.Decimal
	Nominal    string
	Source     FundingSource
	Status     TransactionStatus
	DebtorName string
	SoldAt     time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
