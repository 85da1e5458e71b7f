package handler

import (
	"encoding/json"
	"net/http"

	"github.com/croche-da-t/server/internal/http/response"
	"github.com/croche-da-t/server/internal/observability"
	"github.com/croche-da-t/server/internal/service"
)

type CategoryHandler struct {
	categories *service.CategoryService
	catalog    *service.CachedCatalogResolver
}

func NewCategoryHandler(categories *service.CategoryService, catalog *service.CachedCatalogResolver) *CategoryHandler {
	return &CategoryHandler{categories: categories, catalog: catalog}
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/v1/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"categories": categories})
}

// Create handles POST /api/v1/categories. Admin only, enforced in the router.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "malformed request body", nil)
		return
	}

	category, err := h.categories.Create(req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.catalog.Invalidate(r.Context()); err != nil {
		observability.Audit(r, "catalog.cache.invalidate_failed", "error", err.Error())
	}
	observability.RecordCategoryMutation("create")
	observability.Audit(r, "category.created", "category_id", category.ID)
	response.JSON(w, r, http.StatusCreated, map[string]any{"category": category})
}
