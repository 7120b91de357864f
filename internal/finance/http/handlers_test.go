package financehttp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaskonter/kaskonter/internal/finance"
	"github.com/kaskonter/kaskonter/internal/period"
	"github.com/kaskonter/kaskonter/internal/shared"
)

type stubService struct {
	summary finance.Summary
	pl      finance.ProfitLoss
	cf      finance.CashFlow
	err     error
}

func (s *stubService) Dashboard(ctx context.Context, ownerID int64, tf period.Timeframe) (finance.Summary, error) {
	return s.summary, s.err
}

func (s *stubService) ProfitLoss(ctx context.Context, ownerID int64, tf period.Timeframe) (finance.ProfitLoss, error) {
	return s.pl, s.err
}

func (s *stubService) CashFlow(ctx context.Context, ownerID int64, tf period.Timeframe) (finance.CashFlow, error) {
	return s.cf, s.err
}

type stubPDF struct{ pdf []byte }

func (s *stubPDF) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	return s.pdf, nil
}

type stubRenderer struct{}

func (stubRenderer) ProfitLossHTML(pl finance.ProfitLoss) (string, error) {
	return "<html>pl</html>", nil
}

func (stubRenderer) CashFlowHTML(cf finance.CashFlow) (string, error) {
	return "<html>cf</html>", nil
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/finance", h.MountRoutes)
	return r
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDashboardReturnsSummaryJSON(t *testing.T) {
	svc := &stubService{summary: finance.Summary{
		TotalRevenue: decimal.NewFromInt(15000),
		AggregatedAt: time.Now(),
	}}
	h := NewHandler(testLogger(), svc, nil, nil, 1)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/finance/dashboard?timeframe=this_month", nil)
	newRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "15000", body["TotalRevenue"])
}

func TestDashboardRejectsBadTimeframe(t *testing.T) {
	h := NewHandler(testLogger(), &stubService{}, nil, nil, 1)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/finance/dashboard?timeframe=month&year=2025&month=13", nil)
	newRouter(h).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDashboardMapsDataUnavailable(t *testing.T) {
	h := NewHandler(testLogger(), &stubService{err: shared.ErrDataUnavailable}, nil, nil, 1)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/finance/dashboard", nil)
	newRouter(h).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestProfitLossPDFExport(t *testing.T) {
	h := NewHandler(testLogger(), &stubService{}, &stubPDF{pdf: []byte("%PDF-1.4")}, stubRenderer{}, 1)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/finance/profit-loss?format=pdf", nil)
	newRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4", rr.Body.String())
}

func TestCashFlowPDFExportUnconfigured(t *testing.T) {
	h := NewHandler(testLogger(), &stubService{}, nil, nil, 1)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/finance/cash-flow?format=pdf", nil)
	newRouter(h).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestCashFlowReturnsStatementJSON(t *testing.T) {
	svc := &stubService{cf: finance.CashFlow{
		Operating: finance.ActivityGroup{Title: "Operating Activities", Net: decimal.NewFromInt(2500)},
		NetChange: decimal.NewFromInt(2500),
	}}
	h := NewHandler(testLogger(), svc, nil, nil, 1)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/finance/cash-flow", nil)
	newRouter(h).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body finance.CashFlow
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.NetChange.Equal(decimal.NewFromInt(2500)))
}
