package rental

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toyloft/backend-toyloft/internal/common"
)

// Handler exposes rental endpoints. ListMine serves customers; Active
// and MarkReturned sit behind the admin role.
type Handler struct {
	Service *Service
}

// ListMine handles GET /api/v1/rentals.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	rentals, err := h.Service.ListForUser(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rentals})
}

// Active handles GET /api/v1/admin/rentals/active.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	rentals, err := h.Service.ListActive(r.Context(), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rentals})
}

// MarkReturned handles POST /api/v1/admin/rentals/{rentalID}/return.
func (h *Handler) MarkReturned(w http.ResponseWriter, r *http.Request) {
	rental, err := h.Service.MarkReturned(r.Context(), chi.URLParam(r, "rentalID"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rental})
}
