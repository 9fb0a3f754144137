package audit

import (
	"net/http"

	"github.com/toyloft/backend-toyloft/internal/common"
)

// Handler exposes HTTP endpoints for the deletion audit trail.
type Handler struct {
	Recorder Recorder
}

// List returns deletion log entries for administrators, newest first.
// Out-of-range paging parameters snap back to defaults instead of erroring.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := common.AtoiDefault(query.Get("limit"), 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := max(common.AtoiDefault(query.Get("offset"), 0), 0)

	entries, err := h.Recorder.List(r.Context(), int32(limit), int32(offset))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to fetch deletion logs", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entries})
}
