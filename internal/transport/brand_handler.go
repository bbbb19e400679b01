package transport

import (
	"net/http"

	"car-marketplace/internal/middleware"
	"car-marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BrandHandler serves the manufacturer catalog
type BrandHandler struct {
	brandService service.BrandService
	logger       *zap.Logger
}

// NewBrandHandler creates a new BrandHandler
func NewBrandHandler(brandService service.BrandService, logger *zap.Logger) *BrandHandler {
	return &BrandHandler{brandService: brandService, logger: logger}
}

// RegisterRoutes registers the brand routes
func (h *BrandHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/brands", h.List)
	r.Get("/api/brands/{id}", h.Get)
}

func (h *BrandHandler) List(w http.ResponseWriter, r *http.Request) {
	brands, err := h.brandService.List(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, brands)
}

func (h *BrandHandler) Get(w http.ResponseWriter, r *http.Request) {
	brand, err := h.brandService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, brand)
}
