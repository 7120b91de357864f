// Package finance turns raw ledger rows into per-period summaries and
// financial statements.
package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kaskonter/kaskonter/internal/ledger"
	"github.com/kaskonter/kaskonter/internal/period"
)

// RowSet carries the four unfiltered row sets one aggregation works on.
// The engine applies the period window in memory per metric; this is what
// keeps outstanding-debt figures period-independent while revenue, expenses
// and capital movement stay period-scoped.
type RowSet struct {
	Deposits     []ledger.CapitalDeposit
	Expenses     []ledger.Expense
	Debts        []ledger.DebtRecord
	Transactions []ledger.SaleTransaction
}

// SourceBreakdown holds the per-funding-source figures of one aggregation.
// Balance spans the full ledger history; the other fields are period-scoped.
type SourceBreakdown struct {
	CapitalUsedInTransactions decimal.Decimal
	GeneralExpense            decimal.Decimal
	AdminFee                  decimal.Decimal
	Balance                   decimal.Decimal
}

// Summary is the aggregation result for one period. NetProfit here is the
// dashboard definition (gross profit minus business expenses); the statement
// builder computes its own net profit that additionally subtracts admin fees
// and personal expenses.
type Summary struct {
	Range                period.Range
	TotalRevenue         decimal.Decimal
	TotalCOGS            decimal.Decimal
	GrossProfit          decimal.Decimal
	BusinessExpenseTotal decimal.Decimal
	NetProfit            decimal.Decimal
	TotalCapitalIn       decimal.Decimal
	TotalAdminFee        decimal.Decimal
	PerSource            map[ledger.FundingSource]SourceBreakdown
	OutstandingDebt      map[ledger.DebtCategory]decimal.Decimal
	UnpaidDebtCount      int
	OverdueDebtCount     int
	AggregatedAt         time.Time
}

// Ready reports whether the summary came out of a completed aggregation.
func (s Summary) Ready() bool { return !s.AggregatedAt.IsZero() }

// Aggregate computes all period metrics from the given row sets. It is a pure
// function of its inputs: re-running with identical inputs yields identical
// results, and an empty row set yields all-zero metrics.
func Aggregate(rng period.Range, rows RowSet, now time.Time) Summary {
	sum := Summary{
		Range:                rng,
		TotalRevenue:         decimal.Zero,
		TotalCOGS:            decimal.Zero,
		BusinessExpenseTotal: decimal.Zero,
		TotalCapitalIn:       decimal.Zero,
		TotalAdminFee:        decimal.Zero,
		PerSource:            make(map[ledger.FundingSource]SourceBreakdown, 4),
		OutstandingDebt: map[ledger.DebtCategory]decimal.Decimal{
			ledger.DebtBusiness: decimal.Zero,
			ledger.DebtPersonal: decimal.Zero,
		},
		AggregatedAt: now,
	}
	for _, src := range ledger.FundingSources() {
		sum.PerSource[src] = SourceBreakdown{
			CapitalUsedInTransactions: decimal.Zero,
			GeneralExpense:            decimal.Zero,
			AdminFee:                  decimal.Zero,
			Balance:                   decimal.Zero,
		}
	}

	for _, dep := range rows.Deposits {
		bd := sum.PerSource[dep.Source]
		bd.Balance = bd.Balance.Add(dep.Amount)
		if rng.Contains(dep.DepositedAt) {
			sum.TotalCapitalIn = sum.TotalCapitalIn.Add(dep.Amount)
			sum.TotalAdminFee = sum.TotalAdminFee.Add(dep.AdminFee)
			bd.AdminFee = bd.AdminFee.Add(dep.AdminFee)
		}
		sum.PerSource[dep.Source] = bd
	}

	for _, exp := range rows.Expenses {
		bd := sum.PerSource[exp.Source]
		bd.Balance = bd.Balance.Sub(exp.Amount)
		if rng.Contains(exp.SpentAt) {
			bd.GeneralExpense = bd.GeneralExpense.Add(exp.Amount)
			if exp.Category == ledger.ExpenseBusiness {
				sum.BusinessExpenseTotal = sum.BusinessExpenseTotal.Add(exp.Amount)
			}
		}
		sum.PerSource[exp.Source] = bd
	}

	for _, txn := range rows.Transactions {
		if txn.Status != ledger.TxnSuccess {
			continue
		}
		bd := sum.PerSource[txn.Source]
		bd.Balance = bd.Balance.Sub(txn.CostPrice)
		if rng.Contains(txn.SoldAt) {
			sum.TotalRevenue = sum.TotalRevenue.Add(txn.SalePrice)
			sum.TotalCOGS = sum.TotalCOGS.Add(txn.CostPrice)
			bd.CapitalUsedInTransactions = bd.CapitalUsedInTransactions.Add(txn.CostPrice)
		}
		sum.PerSource[txn.Source] = bd
	}

	// Outstanding debt is a point-in-time snapshot: it deliberately ignores
	// the period window and looks at current status only.
	for _, debt := range rows.Debts {
		if debt.Status != ledger.DebtUnpaid {
			continue
		}
		sum.OutstandingDebt[debt.Category] = sum.OutstandingDebt[debt.Category].Add(debt.Principal)
		sum.UnpaidDebtCount++
		if debt.Classify(now) == ledger.DebtOverdue {
			sum.OverdueDebtCount++
		}
	}

	sum.GrossProfit = sum.TotalRevenue.Sub(sum.TotalCOGS)
	sum.NetProfit = sum.GrossProfit.Sub(sum.BusinessExpenseTotal)
	return sum
}
