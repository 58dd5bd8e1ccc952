package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/collegepath/internal/app"
	"github.com/okian/collegepath/internal/domain/types"
)

// IdempotencyKeyHeader may carry the batch request id instead of the body.
const IdempotencyKeyHeader = "Idempotency-Key"

// BatchDependencies submits and reads asynchronous batches.
type BatchDependencies interface {
	SubmitBatch(ctx context.Context, requestID string, forms []types.StudentForm) (types.BatchTicket, error)
	Batch(ctx context.Context, id string) (types.Batch, error)
}

// BatchesHandler handles batch submission and lookup.
type BatchesHandler struct {
	deps         BatchDependencies
	maxBodyBytes int64
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps BatchDependencies, maxBodyBytes int64) *BatchesHandler {
	return &BatchesHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePostBatch handles POST /batches requests.
func (h *BatchesHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_batch"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req types.BatchRequest
	if status, code, err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, status, code, Wrap(op, err))
		return
	}
	if req.RequestID == "" {
		req.RequestID = strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	}

	ticket, err := h.deps.SubmitBatch(r.Context(), req.RequestID, req.Profiles)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, ticket)
	case errors.Is(err, service.ErrDuplicate):
		writeJSON(w, http.StatusOK, ticket)
	case errors.Is(err, service.ErrEmptyBatch):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrBatchTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, err))
	case errors.Is(err, service.ErrBackpressure):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", WrapKind(op, ErrInternal, err))
	}
}

// HandleGetBatch handles GET /batches/{id} requests.
func (h *BatchesHandler) HandleGetBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_batch"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/batches/"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	b, err := h.deps.Batch(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, b)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	}
}
