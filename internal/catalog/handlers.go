package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/toyloft/backend-toyloft/internal/common"
)

// Handler exposes public catalog endpoints and the admin CRUD surface.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Handler{service: cfg.Service, validate: v}
}

// Toys handles GET /api/v1/toys with category, search, and mode filters
// plus pagination.
func (h *Handler) Toys(w http.ResponseWriter, r *http.Request) {
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.service.List(r.Context(), params)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.Limit, TotalItems: int(result.Total)},
	})
}

// ToyDetail handles GET /api/v1/toys/{toyID}.
func (h *Handler) ToyDetail(w http.ResponseWriter, r *http.Request) {
	toy, err := h.service.Get(r.Context(), chi.URLParam(r, "toyID"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toy})
}

// CreateToy handles POST /api/v1/admin/toys.
func (h *Handler) CreateToy(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	toy, err := h.service.Create(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toy})
}

// UpdateToy handles PUT /api/v1/admin/toys/{toyID}.
func (h *Handler) UpdateToy(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	toy, err := h.service.Update(r.Context(), chi.URLParam(r, "toyID"), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toy})
}

// DeleteToy handles DELETE /api/v1/admin/toys/{toyID}.
func (h *Handler) DeleteToy(w http.ResponseWriter, r *http.Request) {
	adminID, _ := common.UserID(r.Context())
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "toyID"), adminID); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (ToyInput, bool) {
	var input ToyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return ToyInput{}, false
	}
	if err := h.validate.Struct(input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid toy payload", err.Error())
		return ToyInput{}, false
	}
	return input, true
}
