package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/collegepath/internal/domain/profile"
	"github.com/okian/collegepath/internal/domain/types"
)

// RecommendDependencies scores one student form.
type RecommendDependencies interface {
	Recommend(ctx context.Context, form types.StudentForm) (types.Recommendation, error)
}

// RecommendationsHandler handles synchronous recommendation requests.
type RecommendationsHandler struct {
	deps         RecommendDependencies
	maxBodyBytes int64
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(deps RecommendDependencies, maxBodyBytes int64) *RecommendationsHandler {
	return &RecommendationsHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePostRecommendation handles POST /recommendations requests.
func (h *RecommendationsHandler) HandlePostRecommendation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_recommendation"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var form types.StudentForm
	if status, code, err := decodeBody(w, r, h.maxBodyBytes, &form); err != nil {
		writeError(w, status, code, Wrap(op, err))
		return
	}

	rec, err := h.deps.Recommend(r.Context(), form)
	if err != nil {
		if errors.Is(err, profile.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
