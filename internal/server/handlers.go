package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"QuantLab/internal/chart"
	"QuantLab/internal/logger"
	"QuantLab/internal/metrics"
	"QuantLab/internal/model"
)

const (
	routeIndex  = "index"
	routeAPI    = "api_dashboard"
	routeHealth = "healthz"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := s.now().UTC()
	data := pageData{
		Ticker:    q.Get("ticker"),
		Start:     q.Get("start"),
		End:       q.Get("end"),
		ScriptURL: s.Chart.ScriptURL(),
	}
	if data.End == "" {
		data.End = today.Format(model.DateLayout)
	}
	if data.Start == "" {
		data.Start = today.AddDate(-1, 0, 0).Format(model.DateLayout)
	}

	if data.Ticker == "" {
		data.Info = MsgEnterTicker
		s.count(routeIndex, metrics.OutcomeEmpty)
		s.renderPage(w, r, data)
		return
	}

	dash, outcome, err := s.build(r.Context(), data.Ticker, data.Start, data.End)
	if err != nil {
		data.Error = UserMessage(err)
		s.count(routeIndex, outcome)
		s.renderPage(w, r, data)
		return
	}

	start := time.Now()
	figs, err := chart.Figures(dash, s.Chart)
	s.Metrics.RenderDur.Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("render charts", append(logger.Attrs(r.Context()), "symbol", dash.Series.Symbol, "error", err)...)
		data.Error = UserMessage(err)
		s.count(routeIndex, metrics.OutcomeError)
		s.renderPage(w, r, data)
		return
	}

	data.Ticker = dash.Series.Symbol
	data.Figures = figs
	data.Summary = &dash.Summary
	s.count(routeIndex, metrics.OutcomeOK)
	s.renderPage(w, r, data)
}

// dashboardResponse is the JSON body of /api/v1/dashboard.
type dashboardResponse struct {
	Symbol     string             `json:"symbol"`
	Provider   string             `json:"provider"`
	Start      string             `json:"start"`
	End        string             `json:"end"`
	Bars       []model.PriceBar   `json:"bars"`
	Indicators model.IndicatorSet `json:"indicators"`
	Summary    model.Summary      `json:"summary"`
}

func (s *Server) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dash, outcome, err := s.build(r.Context(), q.Get("ticker"), q.Get("start"), q.Get("end"))
	s.count(routeAPI, outcome)
	if err != nil {
		writeJSON(w, statusFor(outcome), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Symbol:     dash.Series.Symbol,
		Provider:   dash.Series.Provider,
		Start:      dash.Series.Start.Format(model.DateLayout),
		End:        dash.Series.End.Format(model.DateLayout),
		Bars:       dash.Series.Bars,
		Indicators: dash.Indicators,
		Summary:    dash.Summary,
	})
}

func statusFor(outcome string) int {
	switch outcome {
	case metrics.OutcomeInvalid:
		return http.StatusBadRequest
	case metrics.OutcomeNoData:
		return http.StatusNotFound
	case metrics.OutcomeProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.Health.Snapshot()
	s.count(routeHealth, metrics.OutcomeOK)
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
