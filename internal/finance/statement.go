package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kaskonter/kaskonter/internal/ledger"
	"github.com/kaskonter/kaskonter/internal/period"
	"github.com/kaskonter/kaskonter/internal/shared"
)

// LineItem is one row inside a statement section. Amounts carry
// currency-neutral precision; formatting belongs to the renderer.
type LineItem struct {
	Label      string          `json:"label"`
	OccurredAt time.Time       `json:"occurredAt"`
	Amount     decimal.Decimal `json:"amount"`
}

// Section groups line items under a label with their total. Item order
// preserves the order of the underlying rows (reverse-chronological by
// default).
type Section struct {
	Title string          `json:"title"`
	Items []LineItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// ProfitLoss is the structured profit and loss statement for one period.
// Its NetProfit subtracts admin fees and personal expenses on top of the
// dashboard definition.
type ProfitLoss struct {
	Range           period.Range    `json:"range"`
	Revenue         Section         `json:"revenue"`
	COGS            Section         `json:"cogs"`
	GrossProfit     decimal.Decimal `json:"grossProfit"`
	BusinessExpense Section         `json:"businessExpense"`
	AdminFee        Section         `json:"adminFee"`
	PersonalExpense Section         `json:"personalExpense"`
	NetProfit       decimal.Decimal `json:"netProfit"`
}

// ActivityGroup is one cash flow activity block.
type ActivityGroup struct {
	Title string          `json:"title"`
	Lines []LineItem      `json:"lines"`
	Net   decimal.Decimal `json:"net"`
}

// CashFlow is the structured cash flow statement for one period. The
// investing group has no rows in this domain but is always emitted at zero
// so the statement shape stays stable.
type CashFlow struct {
	Range     period.Range    `json:"range"`
	Operating ActivityGroup   `json:"operating"`
	Investing ActivityGroup   `json:"investing"`
	Financing ActivityGroup   `json:"financing"`
	NetChange decimal.Decimal `json:"netChangeInCash"`
}

// BuildProfitLoss assembles the profit and loss statement from a completed
// aggregation plus the raw rows needed for itemized sections.
func BuildProfitLoss(sum Summary, rows RowSet) (ProfitLoss, error) {
	if !sum.Ready() {
		return ProfitLoss{}, shared.ErrIncompleteAggregation
	}
	rng := sum.Range

	pl := ProfitLoss{
		Range:           rng,
		Revenue:         Section{Title: "Revenue", Total: sum.TotalRevenue},
		COGS:            Section{Title: "Cost of Goods Sold", Total: sum.TotalCOGS},
		GrossProfit:     sum.GrossProfit,
		BusinessExpense: Section{Title: "Business Expenses", Total: sum.BusinessExpenseTotal},
		AdminFee:        Section{Title: "Admin Fees", Total: sum.TotalAdminFee},
		PersonalExpense: Section{Title: "Personal Expenses", Total: decimal.Zero},
	}

	for _, txn := range rows.Transactions {
		if txn.Status != ledger.TxnSuccess || !rng.Contains(txn.SoldAt) {
			continue
		}
		label := txn.Nominal
		if label == "" {
			label = "Sale"
		}
		pl.Revenue.Items = append(pl.Revenue.Items, LineItem{Label: label, OccurredAt: txn.SoldAt, Amount: txn.SalePrice})
		pl.COGS.Items = append(pl.COGS.Items, LineItem{Label: label, OccurredAt: txn.SoldAt, Amount: txn.CostPrice})
	}

	for _, exp := range rows.Expenses {
		if !rng.Contains(exp.SpentAt) {
			continue
		}
		item := LineItem{Label: exp.Note, OccurredAt: exp.SpentAt, Amount: exp.Amount}
		switch exp.Category {
		case ledger.ExpenseBusiness:
			pl.BusinessExpense.Items = append(pl.BusinessExpense.Items, item)
		case ledger.ExpensePersonal:
			pl.PersonalExpense.Items = append(pl.PersonalExpense.Items, item)
			pl.PersonalExpense.Total = pl.PersonalExpense.Total.Add(exp.Amount)
		}
	}

	// Admin fees are grouped per funding source, not listed per deposit row.
	// All four sources are emitted so the section shape stays stable.
	for _, src := range ledger.FundingSources() {
		pl.AdminFee.Items = append(pl.AdminFee.Items, LineItem{
			Label:  string(src),
			Amount: sum.PerSource[src].AdminFee,
		})
	}

	pl.NetProfit = pl.GrossProfit.
		Sub(pl.BusinessExpense.Total).
		Sub(pl.AdminFee.Total).
		Sub(pl.PersonalExpense.Total)
	return pl, nil
}

// BuildCashFlow assembles the cash flow statement from a completed
// aggregation plus the raw rows. Loans given are scoped by debt creation
// date while repayments received are scoped by payment date, so one debt can
// appear as an outflow in one period's report and an inflow in another's.
func BuildCashFlow(sum Summary, rows RowSet) (CashFlow, error) {
	if !sum.Ready() {
		return CashFlow{}, shared.ErrIncompleteAggregation
	}
	rng := sum.Range

	personal := decimal.Zero
	for _, exp := range rows.Expenses {
		if rng.Contains(exp.SpentAt) && exp.Category == ledger.ExpensePersonal {
			personal = personal.Add(exp.Amount)
		}
	}

	loansGiven := decimal.Zero
	repayments := decimal.Zero
	for _, debt := range rows.Debts {
		if debt.Category != ledger.DebtBusiness {
			continue
		}
		if rng.Contains(debt.DebtDate) {
			loansGiven = loansGiven.Add(debt.Principal)
		}
		if debt.Status == ledger.DebtPaid && debt.PaidAt != nil && rng.Contains(*debt.PaidAt) {
			repayments = repayments.Add(debt.Principal)
		}
	}

	operating := ActivityGroup{
		Title: "Operating Activities",
		Lines: []LineItem{
			{Label: "Customer receipts", Amount: sum.TotalRevenue},
			{Label: "Cost of goods sold paid", Amount: sum.TotalCOGS.Neg()},
			{Label: "Operating expenses paid", Amount: sum.BusinessExpenseTotal.Neg()},
			{Label: "Admin fees paid", Amount: sum.TotalAdminFee.Neg()},
		},
	}
	operating.Net = sum.TotalRevenue.
		Sub(sum.TotalCOGS).
		Sub(sum.BusinessExpenseTotal).
		Sub(sum.TotalAdminFee)

	investing := ActivityGroup{
		Title: "Investing Activities",
		Lines: []LineItem{{Label: "Investing activities", Amount: decimal.Zero}},
		Net:   decimal.Zero,
	}

	financing := ActivityGroup{
		Title: "Financing Activities",
		Lines: []LineItem{
			{Label: "Capital contributions", Amount: sum.TotalCapitalIn},
			{Label: "Personal withdrawals", Amount: personal.Neg()},
			{Label: "Loans given", Amount: loansGiven.Neg()},
			{Label: "Loan repayments received", Amount: repayments},
		},
	}
	financing.Net = sum.TotalCapitalIn.
		Sub(personal).
		Sub(loansGiven).
		Add(repayments)

	return CashFlow{
		Range:     rng,
		Operating: operating,
		Investing: investing,
		Financing: financing,
		NetChange: operating.Net.Add(financing.Net),
	}, nil
}

// StatementTitle renders a period heading used by exporters.
func StatementTitle(kind string, rng period.Range) string {
	return fmt.Sprintf("%s %s to %s", kind,
		rng.Start.Format("2 Jan 2006"), rng.End.Format("2 Jan 2006"))
}
