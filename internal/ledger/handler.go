package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/kaskonter/kaskonter/internal/period"
	"github.com/kaskonter/kaskonter/internal/platform/httpx"
	"github.com/kaskonter/kaskonter/internal/shared"
)

// Handler wires HTTP endpoints for ledger rows. The owner id is fixed at
// construction; authentication is an external concern.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	ownerID  int64
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, ownerID int64) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		ownerID:  ownerID,
		validate: validator.New(),
	}
}

type depositRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	AdminFee    decimal.Decimal `json:"adminFee"`
	Source      string          `json:"source" validate:"required"`
	Note        string          `json:"note"`
	DepositedAt time.Time       `json:"depositedAt" validate:"required"`
}

func (r depositRequest) input() DepositInput {
	return DepositInput{
		Amount:      r.Amount,
		AdminFee:    r.AdminFee,
		Source:      FundingSource(r.Source),
		Note:        r.Note,
		DepositedAt: r.DepositedAt,
	}
}

type transferRequest struct {
	From          string          `json:"from" validate:"required"`
	To            string          `json:"to" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	AdminFee      decimal.Decimal `json:"adminFee"`
	Note          string          `json:"note"`
	TransferredAt time.Time       `json:"transferredAt" validate:"required"`
}

type expenseRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Category string          `json:"category" validate:"required"`
	Source   string          `json:"source" validate:"required"`
	Note     string          `json:"note" validate:"required"`
	SpentAt  time.Time       `json:"spentAt" validate:"required"`
}

type debtRequest struct {
	Principal  decimal.Decimal `json:"principal" validate:"required"`
	Category   string          `json:"category" validate:"required"`
	Source     string          `json:"source" validate:"required"`
	DebtorName string          `json:"debtorName"`
	Note       string          `json:"note"`
	DebtDate   time.Time       `json:"debtDate" validate:"required"`
	DueDate    *time.Time      `json:"dueDate"`
}

func (r debtRequest) input() DebtInput {
	return DebtInput{
		Principal:  r.Principal,
		Category:   DebtCategory(r.Category),
		Source:     FundingSource(r.Source),
		DebtorName: r.DebtorName,
		Note:       r.Note,
		DebtDate:   r.DebtDate,
		DueDate:    r.DueDate,
	}
}

type debtStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type transactionRequest struct {
	SalePrice  decimal.Decimal `json:"salePrice"`
	CostPrice  decimal.Decimal `json:"costPrice"`
	Nominal    string          `json:"nominal"`
	Source     string          `json:"source" validate:"required"`
	Status     string          `json:"status" validate:"required"`
	DebtorName string          `json:"debtorName"`
	SoldAt     time.Time       `json:"soldAt" validate:"required"`
}

func (r transactionRequest) input() TransactionInput {
	return TransactionInput{
		SalePrice:  r.SalePrice,
		CostPrice:  r.CostPrice,
		Nominal:    r.Nominal,
		Source:     FundingSource(r.Source),
		Status:     TransactionStatus(r.Status),
		DebtorName: r.DebtorName,
		SoldAt:     r.SoldAt,
	}
}

func (h *Handler) listDeposits(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var f DepositFilter
	f.Range = rng
	if src := r.URL.Query().Get("source"); src != "" {
		source := FundingSource(src)
		f.Source = &source
	}
	deposits, err := h.service.ListDeposits(r.Context(), h.ownerID, f)
	if err != nil {
		h.fail(w, "list deposits", err)
		return
	}
	httpx.JSON(w, http.StatusOK, deposits)
}

func (h *Handler) createDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	dep, err := h.service.RecordDeposit(r.Context(), h.ownerID, req.input())
	if err != nil {
		h.fail(w, "create deposit", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dep)
}

func (h *Handler) updateDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req depositRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	dep, err := h.service.UpdateDeposit(r.Context(), h.ownerID, id, req.input())
	if err != nil {
		h.fail(w, "update deposit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dep)
}

func (h *Handler) deleteDeposit(w http.ResponseWriter, r *http.Request) {
	h.deleteRow(w, r, "delete deposit", h.service.DeleteDeposit)
}

func (h *Handler) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	origin, destination, err := h.service.Transfer(r.Context(), h.ownerID, TransferInput{
		From:          FundingSource(req.From),
		To:            FundingSource(req.To),
		Amount:        req.Amount,
		AdminFee:      req.AdminFee,
		Note:          req.Note,
		TransferredAt: req.TransferredAt,
	})
	if err != nil {
		h.fail(w, "transfer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"origin":      origin,
		"destination": destination,
	})
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var f ExpenseFilter
	f.Range = rng
	if cat := r.URL.Query().Get("category"); cat != "" {
		category := ExpenseCategory(cat)
		f.Category = &category
	}
	if src := r.URL.Query().Get("source"); src != "" {
		source := FundingSource(src)
		f.Source = &source
	}
	expenses, err := h.service.ListExpenses(r.Context(), h.ownerID, f)
	if err != nil {
		h.fail(w, "list expenses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, expenses)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	exp, err := h.service.RecordExpense(r.Context(), h.ownerID, ExpenseInput{
		Amount:   req.Amount,
		Category: ExpenseCategory(req.Category),
		Source:   FundingSource(req.Source),
		Note:     req.Note,
		SpentAt:  req.SpentAt,
	})
	if err != nil {
		h.fail(w, "create expense", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, exp)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	h.deleteRow(w, r, "delete expense", h.service.DeleteExpense)
}

func (h *Handler) listDebts(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var f DebtFilter
	f.Range = rng
	if cat := r.URL.Query().Get("category"); cat != "" {
		category := DebtCategory(cat)
		f.Category = &category
	}
	if st := r.URL.Query().Get("status"); st != "" {
		status := DebtStatus(st)
		f.Status = &status
	}
	debts, err := h.service.ListDebts(r.Context(), h.ownerID, f)
	if err != nil {
		h.fail(w, "list debts", err)
		return
	}
	now := time.Now()
	type debtView struct {
		DebtRecord
		DisplayStatus DebtStatus `json:"displayStatus"`
	}
	views := make([]debtView, 0, len(debts))
	for _, d := range debts {
		views = append(views, debtView{DebtRecord: d, DisplayStatus: d.Classify(now)})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) createDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	debt, err := h.service.RecordDebt(r.Context(), h.ownerID, req.input())
	if err != nil {
		h.fail(w, "create debt", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, debt)
}

func (h *Handler) updateDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req debtRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	debt, err := h.service.UpdateDebt(r.Context(), h.ownerID, id, req.input())
	if err != nil {
		h.fail(w, "update debt", err)
		return
	}
	httpx.JSON(w, http.StatusOK, debt)
}

func (h *Handler) setDebtStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req debtStatusRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	debt, err := h.service.SetDebtStatus(r.Context(), h.ownerID, id, DebtStatus(req.Status))
	if err != nil {
		h.fail(w, "set debt status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, debt)
}

func (h *Handler) deleteDebt(w http.ResponseWriter, r *http.Request) {
	h.deleteRow(w, r, "delete debt", h.service.DeleteDebt)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var f TransactionFilter
	f.Range = rng
	if src := r.URL.Query().Get("source"); src != "" {
		source := FundingSource(src)
		f.Source = &source
	}
	if st := r.URL.Query().Get("status"); st != "" {
		status := TransactionStatus(st)
		f.Status = &status
	}
	txns, err := h.service.ListTransactions(r.Context(), h.ownerID, f)
	if err != nil {
		h.fail(w, "list transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, txns)
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	txn, err := h.service.RecordTransaction(r.Context(), h.ownerID, req.input())
	if err != nil {
		h.fail(w, "create transaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, txn)
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req transactionRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	txn, err := h.service.UpdateTransaction(r.Context(), h.ownerID, id, req.input())
	if err != nil {
		h.fail(w, "update transaction", err)
		return
	}
	httpx.JSON(w, http.StatusOK, txn)
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	h.deleteRow(w, r, "delete transaction", h.service.DeleteTransaction)
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return fmt.Errorf("%w: malformed body: %v", shared.ErrValidation, err)
	}
	if err := h.validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return nil
}

func (h *Handler) deleteRow(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, int64, int64) error) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := fn(r.Context(), h.ownerID, id); err != nil {
		h.fail(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id", shared.ErrValidation)
	}
	return id, nil
}

// rangeFromQuery resolves an optional timeframe filter from query params.
// Absent params mean no date filtering.
func rangeFromQuery(r *http.Request) (*period.Range, error) {
	q := r.URL.Query()
	kind := q.Get("timeframe")
	if kind == "" {
		return nil, nil
	}
	tf, err := period.ParseTimeframe(kind, q.Get("year"), q.Get("month"), q.Get("from"), q.Get("to"))
	if err != nil {
		return nil, err
	}
	rng, err := period.Resolve(tf, time.Now())
	if err != nil {
		return nil, err
	}
	return &rng, nil
}
