package wishlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toyloft/backend-toyloft/internal/common"
)

// Handler exposes authenticated wishlist endpoints.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/wishlist.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	items, err := h.Service.List(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Add handles PUT /api/v1/wishlist/{toyID}.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	added, err := h.Service.Add(r.Context(), userID, chi.URLParam(r, "toyID"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"wishlisted": true, "added": added}})
}

// Remove handles DELETE /api/v1/wishlist/{toyID}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	if _, err := h.Service.Remove(r.Context(), userID, chi.URLParam(r, "toyID")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle handles POST /api/v1/wishlist/{toyID}/toggle.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	wishlisted, err := h.Service.Toggle(r.Context(), userID, chi.URLParam(r, "toyID"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"wishlisted": wishlisted}})
}

// Check handles GET /api/v1/wishlist/{toyID}.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	wishlisted, err := h.Service.Contains(r.Context(), userID, chi.URLParam(r, "toyID"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"wishlisted": wishlisted}})
}
