// Package chi is the HTTP surface: a thin shell over the ask and ingest
// services. Handlers validate, delegate, and encode; no domain logic
// lives here.
package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/spendex/internal/domain"
	askuc "github.com/kailas-cloud/spendex/internal/usecase/ask"
	ingestuc "github.com/kailas-cloud/spendex/internal/usecase/ingest"
)

// pinger is the readiness contract for the backing store (ISP).
type pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers.
type Server struct {
	ask      *askuc.Service
	ingest   *ingestuc.Service
	store    pinger
	embedder domain.HealthChecker
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	ask *askuc.Service,
	ingest *ingestuc.Service,
	store pinger,
	embedder domain.HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{ask: ask, ingest: ingest, store: store, embedder: embedder, logger: logger}
}

// Routes mounts the API endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/ask", s.handleAsk)
	r.Post("/v1/receipts", s.handleSaveReceipt)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// askRequest is the POST /v1/ask body.
type askRequest struct {
	UserID   string `json:"userId"`
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" || req.Question == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "userId and question are required")
		return
	}

	// The engine always returns an answer object; HTTP status stays 200
	// even for an unsuccessful result so clients branch on the payload.
	result := s.ask.Ask(r.Context(), req.UserID, req.Question)
	writeJSON(w, http.StatusOK, result)
}

// saveReceiptRequest is the POST /v1/receipts body.
type saveReceiptRequest struct {
	UserID      string            `json:"userId"`
	Vendor      string            `json:"vendor"`
	Category    string            `json:"category"`
	Date        string            `json:"date"`
	Amount      float64           `json:"amount"`
	PaymentMode string            `json:"paymentMode,omitempty"`
	Items       []domain.LineItem `json:"items"`
}

func (s *Server) handleSaveReceipt(w http.ResponseWriter, r *http.Request) {
	var req saveReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "userId is required")
		return
	}

	rec, err := s.ingest.Store(r.Context(), domain.Receipt{
		UserID:      req.UserID,
		Vendor:      req.Vendor,
		Category:    req.Category,
		Date:        req.Date,
		Amount:      req.Amount,
		PaymentMode: req.PaymentMode,
		Items:       req.Items,
	})
	if err != nil {
		s.logger.Error("Receipt ingestion failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "ingestion_failed", "Failed to store the receipt")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"receiptId": rec.ID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("Health check failed", zap.String("component", "database"), zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable,
			map[string]string{"status": "unhealthy", "component": "database"})
		return
	}
	if err := s.embedder.HealthCheck(r.Context()); err != nil {
		s.logger.Warn("Health check failed", zap.String("component", "embedding"), zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable,
			map[string]string{"status": "unhealthy", "component": "embedding"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
