// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/collegepath/internal/domain/profile"
	"github.com/okian/collegepath/pkg/metrics"
)

const defaultMaxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RecommendDependencies
	CollegeDependencies
	BatchDependencies
	StatsProvider
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler          *HealthHandler
	statsHandler           *StatsHandler
	recommendationsHandler *RecommendationsHandler
	collegesHandler        *CollegesHandler
	batchesHandler         *BatchesHandler

	maxBodyBytes int64
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.recommendationsHandler = NewRecommendationsHandler(deps, s.maxBodyBytes)
	s.collegesHandler = NewCollegesHandler(deps)
	s.batchesHandler = NewBatchesHandler(deps, s.maxBodyBytes)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/recommendations", MetricsMiddleware(s.recommendationsHandler.HandlePostRecommendation, "recommendations"))
	mux.HandleFunc("/colleges", MetricsMiddleware(s.collegesHandler.HandleListColleges, "colleges"))
	mux.HandleFunc("/colleges/", MetricsMiddleware(s.collegesHandler.HandleGetCollege, "college"))
	mux.HandleFunc("/batches", MetricsMiddleware(s.batchesHandler.HandlePostBatch, "batches"))
	mux.HandleFunc("/batches/", MetricsMiddleware(s.batchesHandler.HandleGetBatch, "batch"))
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	if err != nil {
		resp.Message = err.Error()
		var invalid *profile.InvalidInputError
		if errors.As(err, &invalid) {
			resp.Fields = invalid.Fields
		}
	}
	writeJSON(w, status, resp)
}

// decodeBody decodes a size-capped JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) (int, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, "too_large", WrapKind("api.decode", ErrTooLarge, err)
		}
		return http.StatusBadRequest, "bad_request", WrapKind("api.decode", ErrBadRequest, err)
	}
	return 0, "", nil
}
