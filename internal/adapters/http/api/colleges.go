package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/collegepath/internal/domain/profile"
	"github.com/okian/collegepath/internal/domain/types"
)

// CollegeDependencies exposes the read-only catalog.
type CollegeDependencies interface {
	Colleges(ctx context.Context, stream string) ([]types.College, error)
	College(ctx context.Context, id string) (types.College, error)
}

// CollegesHandler serves the catalog.
type CollegesHandler struct {
	deps CollegeDependencies
}

// NewCollegesHandler creates a new colleges handler.
func NewCollegesHandler(deps CollegeDependencies) *CollegesHandler {
	return &CollegesHandler{deps: deps}
}

// HandleListColleges handles GET /colleges[?stream=] requests.
func (h *CollegesHandler) HandleListColleges(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_colleges"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	list, err := h.deps.Colleges(r.Context(), r.URL.Query().Get("stream"))
	if err != nil {
		if errors.Is(err, profile.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGetCollege handles GET /colleges/{id} requests.
func (h *CollegesHandler) HandleGetCollege(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_college"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/colleges/"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	c, err := h.deps.College(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
