// Package financehttp exposes the aggregation and statement endpoints.
package financehttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaskonter/kaskonter/internal/finance"
	"github.com/kaskonter/kaskonter/internal/period"
	"github.com/kaskonter/kaskonter/internal/platform/httpx"
)

// FinanceService defines the reporting contract used by the handler.
type FinanceService interface {
	Dashboard(ctx context.Context, ownerID int64, tf period.Timeframe) (finance.Summary, error)
	ProfitLoss(ctx context.Context, ownerID int64, tf period.Timeframe) (finance.ProfitLoss, error)
	CashFlow(ctx context.Context, ownerID int64, tf period.Timeframe) (finance.CashFlow, error)
}

// PDFService renders statement HTML to PDF bytes; the renderer itself is an
// external collaborator.
type PDFService interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// StatementRenderer turns statements into HTML documents for export.
type StatementRenderer interface {
	ProfitLossHTML(pl finance.ProfitLoss) (string, error)
	CashFlowHTML(cf finance.CashFlow) (string, error)
}

// Handler coordinates HTTP requests for dashboards and statements.
type Handler struct {
	logger   *slog.Logger
	service  FinanceService
	pdf      PDFService
	renderer StatementRenderer
	ownerID  int64
}

// NewHandler constructs the finance HTTP handler. pdf and renderer may be nil
// when export is not configured.
func NewHandler(logger *slog.Logger, service FinanceService, pdf PDFService, renderer StatementRenderer, ownerID int64) *Handler {
	return &Handler{logger: logger, service: service, pdf: pdf, renderer: renderer, ownerID: ownerID}
}

// MountRoutes attaches finance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/profit-loss", h.handleProfitLoss)
	r.Get("/cash-flow", h.handleCashFlow)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	tf, err := timeframeFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sum, err := h.service.Dashboard(r.Context(), h.ownerID, tf)
	if err != nil {
		h.fail(w, "dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *Handler) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	tf, err := timeframeFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pl, err := h.service.ProfitLoss(r.Context(), h.ownerID, tf)
	if err != nil {
		h.fail(w, "profit loss", err)
		return
	}
	if r.URL.Query().Get("format") == "pdf" {
		h.exportPDF(w, r, "profit-loss.pdf", func() (string, error) {
			return h.renderer.ProfitLossHTML(pl)
		})
		return
	}
	httpx.JSON(w, http.StatusOK, pl)
}

func (h *Handler) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	tf, err := timeframeFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cf, err := h.service.CashFlow(r.Context(), h.ownerID, tf)
	if err != nil {
		h.fail(w, "cash flow", err)
		return
	}
	if r.URL.Query().Get("format") == "pdf" {
		h.exportPDF(w, r, "cash-flow.pdf", func() (string, error) {
			return h.renderer.CashFlowHTML(cf)
		})
		return
	}
	httpx.JSON(w, http.StatusOK, cf)
}

func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request, filename string, build func() (string, error)) {
	if h.pdf == nil || h.renderer == nil {
		httpx.Problem(w, http.StatusNotImplemented, "Export Unavailable", "pdf export is not configured")
		return
	}
	html, err := build()
	if err != nil {
		h.fail(w, "render statement html", err)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.fail(w, "render pdf", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(pdf)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func timeframeFromQuery(r *http.Request) (period.Timeframe, error) {
	q := r.URL.Query()
	return period.ParseTimeframe(q.Get("timeframe"), q.Get("year"), q.Get("month"), q.Get("from"), q.Get("to"))
}
