// Package api exposes scan results over HTTP: report queries, CSV
// export, per-symbol charts, scan history, and a WebSocket progress
// feed.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"signalscan/internal/crosslog"
	"signalscan/internal/metrics"
	"signalscan/internal/model"
	"signalscan/internal/report"
	"signalscan/internal/scanner"
	"signalscan/internal/scheduler"
	"signalscan/internal/store/sqlite"
)

// Server wires the HTTP surface. Store may be nil (no history),
// health may be nil (plain ok response).
type Server struct {
	sched    *scheduler.Scheduler
	provider scanner.Provider
	store    *sqlite.Store
	hub      *Hub
	health   *metrics.HealthStatus
	lookback time.Duration
	log      *slog.Logger
}

// NewServer creates the API server.
func NewServer(sched *scheduler.Scheduler, p scanner.Provider, store *sqlite.Store, hub *Hub, health *metrics.HealthStatus, lookback time.Duration) *Server {
	if lookback <= 0 {
		lookback = 365 * 24 * time.Hour
	}
	return &Server{
		sched:    sched,
		provider: p,
		store:    store,
		hub:      hub,
		health:   health,
		lookback: lookback,
		log:      slog.Default().With(slog.String("component", "api")),
	}
}

// Router builds the route table.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/scan", s.handleScan)
	mux.HandleFunc("/api/v1/scan/export", s.handleExport)
	mux.HandleFunc("/api/v1/chart", s.handleChart)
	mux.HandleFunc("/api/v1/crossovers", s.handleCrossovers)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/ws/progress", s.hub.ServeWS)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		s.health.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleScan serves the latest report (GET) or runs a fresh scan
// (POST). Both accept ?cross=golden|death and ?action=BUY|HOLD|SELL.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rep, err := s.latestReport(r)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeFilteredReport(w, r, rep)

	case http.MethodPost:
		rep, err := s.sched.TriggerScan(r.Context(), "manual")
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, scheduler.ErrScanInProgress) {
				status = http.StatusConflict
			}
			writeError(w, status, err)
			return
		}
		s.writeFilteredReport(w, r, rep)

	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.latestReport(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	rep = filterReport(rep, r)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=scan_%s.csv", rep.GeneratedAt.Format("20060102_150405")))
	if err := report.WriteCSV(w, rep.Rows); err != nil {
		s.log.Error("csv export failed", slog.String("err", err.Error()))
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("symbol parameter required"))
		return
	}

	bars, err := s.provider.FetchDailyBars(r.Context(), symbol, s.lookback)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Errorf("fetch %s: %w", symbol, err))
		return
	}
	writeJSON(w, report.BuildChart(symbol, bars))
}

// handleCrossovers returns every historical MA50/MA200 cross for one
// symbol, newest first, with change tracking since each event.
func (s *Server) handleCrossovers(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("symbol parameter required"))
		return
	}

	bars, err := s.provider.FetchDailyBars(r.Context(), symbol, s.lookback)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Errorf("fetch %s: %w", symbol, err))
		return
	}
	entries := crosslog.Build(bars)
	if entries == nil {
		entries = []crosslog.Entry{}
	}
	writeJSON(w, map[string]any{"symbol": symbol, "crossovers": entries})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("scan history not configured"))
		return
	}

	if idStr := r.URL.Query().Get("run"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("bad run id %q", idStr))
			return
		}
		rep, err := s.store.LoadRun(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeFilteredReport(w, r, rep)
		return
	}

	limit := 20
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}
	runs, err := s.store.RecentRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, runs)
}

// latestReport loads the most recent persisted run.
func (s *Server) latestReport(r *http.Request) (*scanner.Report, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no scan history configured; POST /api/v1/scan to run one")
	}
	runs, err := s.store.RecentRuns(r.Context(), 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no scans recorded yet")
	}
	return s.store.LoadRun(r.Context(), runs[0].ID)
}

func (s *Server) writeFilteredReport(w http.ResponseWriter, r *http.Request, rep *scanner.Report) {
	writeJSON(w, filterReport(rep, r))
}

func filterReport(rep *scanner.Report, r *http.Request) *scanner.Report {
	cross := parseCross(r.URL.Query().Get("cross"))
	action := parseAction(r.URL.Query().Get("action"))
	if cross == "" && action == "" {
		return rep
	}
	return rep.Filter(cross, action)
}

func parseCross(raw string) model.CrossKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "golden", "golden cross":
		return model.GoldenCross
	case "death", "death cross":
		return model.DeathCross
	default:
		return ""
	}
}

func parseAction(raw string) model.Action {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BUY":
		return model.ActionBuy
	case "HOLD":
		return model.ActionHold
	case "SELL":
		return model.ActionSell
	default:
		return ""
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
