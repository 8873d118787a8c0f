package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"DiscountScanner/internal/domain"
	"DiscountScanner/internal/ports"
)

// ScrapeRunner triggers a scrape for one retailer; satisfied by the
// usecase pipeline.
type ScrapeRunner interface {
	RunScrape(ctx context.Context, retailer string) (domain.ReconciliationSummary, error)
}

// Server exposes the trigger and dashboard endpoints over plain JSON.
type Server struct {
	http   *http.Server
	runner ScrapeRunner
	reader ports.DiscountReader
	logger *slog.Logger
}

// NewServer builds the HTTP surface on the given address.
func NewServer(addr string, runner ScrapeRunner, reader ports.DiscountReader, logger *slog.Logger) *Server {
	s := &Server{runner: runner, reader: reader, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/scrape/{retailer}", s.handleScrape)
	mux.HandleFunc("GET /api/discounts", s.handleDiscounts)
	mux.HandleFunc("GET /api/runs", s.handleRuns)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops. Returns nil on a clean
// shutdown.
func (s *Server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// handleScrape runs the pipeline synchronously so the caller gets the
// reconciliation counts back in the response.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	retailer := r.PathValue("retailer")

	summary, err := s.runner.RunScrape(r.Context(), retailer)
	if err != nil {
		s.logger.Error("manual scrape failed", "retailer", retailer, "error", err)
		s.writeError(w, classifyStatus(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"retailer": retailer,
		"summary":  summary,
	})
}

func (s *Server) handleDiscounts(w http.ResponseWriter, r *http.Request) {
	listings, err := s.reader.ActiveDiscounts(r.Context(), r.URL.Query().Get("retailer"))
	if err != nil {
		s.logger.Error("list discounts failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if listings == nil {
		listings = []domain.DiscountListing{}
	}
	s.writeJSON(w, http.StatusOK, listings)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	runs, err := s.reader.RecentRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []domain.ScraperRun{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func classifyStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrSession), errors.Is(err, domain.ErrExpiryParse):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrReconciliation):
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
