package content

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/toyloft/backend-toyloft/internal/common"
)

// Handler exposes the public content pages and the admin CRUD routes.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// NewHandler wires a handler with a default validator.
func NewHandler(service *Service) *Handler {
	return &Handler{Service: service, Validate: validator.New()}
}

// Posts handles GET /api/v1/blog.
func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 10)
	posts, err := h.Service.ListPublished(r.Context(), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": posts})
}

// Post handles GET /api/v1/blog/{slug}.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	post, err := h.Service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": post})
}

// AdminPosts handles GET /api/v1/admin/blog.
func (h *Handler) AdminPosts(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	posts, err := h.Service.ListAll(r.Context(), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": posts})
}

// CreatePost handles POST /api/v1/admin/blog.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var input PostInput
	if !h.decode(w, r, &input) {
		return
	}
	post, err := h.Service.CreatePost(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": post})
}

// UpdatePost handles PUT /api/v1/admin/blog/{postID}.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var input PostInput
	if !h.decode(w, r, &input) {
		return
	}
	post, err := h.Service.UpdatePost(r.Context(), chi.URLParam(r, "postID"), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": post})
}

// DeletePost handles DELETE /api/v1/admin/blog/{postID}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeletePost(r.Context(), chi.URLParam(r, "postID")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Gallery handles GET /api/v1/gallery.
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	images, err := h.Service.Gallery(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": images})
}

// AddImage handles POST /api/v1/admin/gallery.
func (h *Handler) AddImage(w http.ResponseWriter, r *http.Request) {
	var input ImageInput
	if !h.decode(w, r, &input) {
		return
	}
	image, err := h.Service.AddImage(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": image})
}

// RemoveImage handles DELETE /api/v1/admin/gallery/{imageID}.
func (h *Handler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveImage(r.Context(), chi.URLParam(r, "imageID")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", err.Error())
			return false
		}
	}
	return true
}
