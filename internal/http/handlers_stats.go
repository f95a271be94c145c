package http

import (
	"errors"
	"net/http"

	"tracker/internal/charts"
	"tracker/internal/core"
	applog "tracker/internal/log"
)

// handleMonthlyStats lists per-month totals over all transactions. List
// filters in the query string are ignored.
func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.MonthlyStats(r.Context())
	if err != nil {
		writeError(w, r, applog.OpStats, err)
		return
	}

	NewJSONResponse().Body(toStatsListJSON(stats)).Write(w)
}

func (s *Server) handleCurrentMonthSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.CurrentMonthSummary(r.Context())
	if err != nil {
		writeError(w, r, applog.OpStats, err)
		return
	}

	NewJSONResponse().Body(toStatsJSON(sum)).Write(w)
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, r, s.charts.MonthlyChart)
}

func (s *Server) handleBalanceChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, r, s.charts.BalanceTrendChart)
}

// renderChart draws the monthly statistics with render and writes the PNG.
func (s *Server) renderChart(w http.ResponseWriter, r *http.Request, render func([]core.MonthlyStats) ([]byte, error)) {
	stats, err := s.svc.MonthlyStats(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}

	png, err := render(stats)
	if errors.Is(err, charts.ErrNoData) {
		ErrorResponse(http.StatusNotFound, "No transactions to chart.").Write(w)
		return
	}
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(toCategoriesJSON(core.Categories())).Write(w)
}
