package report

import (
	"bytes"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kaskonter/kaskonter/internal/finance"
)

// StatementRenderer builds printable HTML documents from statements. The
// output is fed to the Gotenberg client for PDF conversion.
type StatementRenderer struct {
	tmpl *template.Template
}

// NewStatementRenderer parses the embedded statement templates.
func NewStatementRenderer() *StatementRenderer {
	funcs := template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"date":  func(t time.Time) string { return t.Format("2 Jan 2006") },
	}
	return &StatementRenderer{
		tmpl: template.Must(template.New("statement").Funcs(funcs).Parse(statementTemplates)),
	}
}

// ProfitLossHTML renders the profit and loss statement.
func (r *StatementRenderer) ProfitLossHTML(pl finance.ProfitLoss) (string, error) {
	return r.render("profit_loss", map[string]any{
		"Title":     finance.StatementTitle("Profit and Loss", pl.Range),
		"Statement": pl,
	})
}

// CashFlowHTML renders the cash flow statement.
func (r *StatementRenderer) CashFlowHTML(cf finance.CashFlow) (string, error) {
	return r.render("cash_flow", map[string]any{
		"Title":     finance.StatementTitle("Cash Flow", cf.Range),
		"Statement": cf,
	})
}

func (r *StatementRenderer) render(name string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const statementTemplates = `
{{define "head"}}
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #1a1a1a; }
h1 { font-size: 1.3rem; border-bottom: 2px solid #1a1a1a; padding-bottom: .4rem; }
h2 { font-size: 1rem; margin-top: 1.4rem; }
table { width: 100%; border-collapse: collapse; }
td { padding: .25rem 0; }
td.amount { text-align: right; font-variant-numeric: tabular-nums; }
tr.total td { border-top: 1px solid #999; font-weight: bold; }
tr.grand td { border-top: 3px double #1a1a1a; font-weight: bold; }
</style>
</head>
{{end}}

{{define "section"}}
<h2>{{.Title}}</h2>
<table>
{{range .Items}}<tr><td>{{.Label}}</td><td class="amount">{{money .Amount}}</td></tr>
{{end}}<tr class="total"><td>Total {{.Title}}</td><td class="amount">{{money .Total}}</td></tr>
</table>
{{end}}

{{define "activity"}}
<h2>{{.Title}}</h2>
<table>
{{range .Lines}}<tr><td>{{.Label}}</td><td class="amount">{{money .Amount}}</td></tr>
{{end}}<tr class="total"><td>Net cash from {{.Title}}</td><td class="amount">{{money .Net}}</td></tr>
</table>
{{end}}

{{define "profit_loss"}}
<!DOCTYPE html>
<html>
{{template "head" .}}
<body>
<h1>{{.Title}}</h1>
{{template "section" .Statement.Revenue}}
{{template "section" .Statement.COGS}}
<table><tr class="grand"><td>Gross Profit</td><td class="amount">{{money .Statement.GrossProfit}}</td></tr></table>
{{template "section" .Statement.BusinessExpense}}
{{template "section" .Statement.AdminFee}}
{{template "section" .Statement.PersonalExpense}}
<table><tr class="grand"><td>Net Profit</td><td class="amount">{{money .Statement.NetProfit}}</td></tr></table>
</body>
</html>
{{end}}

{{define "cash_flow"}}
<!DOCTYPE html>
<html>
{{template "head" .}}
<body>
<h1>{{.Title}}</h1>
{{template "activity" .Statement.Operating}}
{{template "activity" .Statement.Investing}}
{{template "activity" .Statement.Financing}}
<table><tr class="grand"><td>Net Change in Cash</td><td class="amount">{{money .Statement.NetChange}}</td></tr></table>
</body>
</html>
{{end}}
`
