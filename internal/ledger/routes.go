package ledger

import "github.com/go-chi/chi/v5"

// MountRoutes attaches ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/deposits", func(r chi.Router) {
		r.Get("/", h.listDeposits)
		r.Post("/", h.createDeposit)
		r.Put("/{id}", h.updateDeposit)
		r.Delete("/{id}", h.deleteDeposit)
	})
	r.Post("/transfers", h.createTransfer)
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.listExpenses)
		r.Post("/", h.createExpense)
		r.Delete("/{id}", h.deleteExpense)
	})
	r.Route("/debts", func(r chi.Router) {
		r.Get("/", h.listDebts)
		r.Post("/", h.createDebt)
		r.Put("/{id}", h.updateDebt)
		r.Post("/{id}/status", h.setDebtStatus)
		r.Delete("/{id}", h.deleteDebt)
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.listTransactions)
		r.Post("/", h.createTransaction)
		r.Put("/{id}", h.updateTransaction)
		r.Delete("/{id}", h.deleteTransaction)
	})
}
