// Package server exposes the activity store and daily summaries over a small
// JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/worklens/worklens/internal/activity"
	"github.com/worklens/worklens/internal/store"
	"github.com/worklens/worklens/internal/summary"
)

// ActivityStore is the slice of the store the API serves from.
type ActivityStore interface {
	QueryByDate(date string) ([]activity.Record, error)
	GetSummary(date string) (activity.DailySummary, error)
	UpsertSummary(date, text string) error
}

// SummaryGenerator regenerates a day's summary on demand.
type SummaryGenerator interface {
	Generate(ctx context.Context, date string) (string, error)
}

// Server routes API requests over an activity store.
type Server struct {
	store     ActivityStore
	generator SummaryGenerator
	log       *zap.Logger
	router    chi.Router
}

// New assembles a Server. generator may be nil, in which case POST /api/summary
// is rejected.
func New(st ActivityStore, generator SummaryGenerator, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{store: st, generator: generator, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/activities", s.handleActivities)
		r.Get("/report", s.handleReport)
		r.Get("/summary", s.handleGetSummary)
		r.Post("/summary", s.handleGenerateSummary)
	})
	s.router = r
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve runs the API on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("api listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	records, err := s.store.QueryByDate(date)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if records == nil {
		records = []activity.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// reportResponse is the aggregate view of one day.
type reportResponse struct {
	Date       string         `json:"date"`
	Hours      float64        `json:"hours"`
	Records    int            `json:"records"`
	Categories map[string]int `json:"categories"`
	TopApps    []string       `json:"top_apps"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	records, err := s.store.QueryByDate(date)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	stats := summary.DayStats(records)
	writeJSON(w, http.StatusOK, reportResponse{
		Date:       date,
		Hours:      stats.Hours,
		Records:    stats.RecordCount,
		Categories: stats.Categories,
		TopApps:    stats.TopApps,
	})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	sum, err := s.store.GetSummary(date)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no summary for %s", date))
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "summary generation is not configured")
		return
	}
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	text, err := s.generator.Generate(r.Context(), date)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"date": date, "summary": text})
}

// dateParam reads and validates the date query parameter, defaulting to today.
func dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return activity.DateOf(time.Now()), true
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date))
		return "", false
	}
	return date, true
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
