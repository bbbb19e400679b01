package transport

import (
	"net/http"

	"car-marketplace/internal/middleware"
	"car-marketplace/internal/search"
	"car-marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CarHandler serves the public car catalog
type CarHandler struct {
	carService service.CarService
	normalizer *search.Normalizer
	logger     *zap.Logger
}

// NewCarHandler creates a new CarHandler
func NewCarHandler(carService service.CarService, normalizer *search.Normalizer, logger *zap.Logger) *CarHandler {
	return &CarHandler{
		carService: carService,
		normalizer: normalizer,
		logger:     logger,
	}
}

// RegisterRoutes registers the public car routes. optionalAuth identifies
// signed-in viewers on the detail page without requiring a token.
func (h *CarHandler) RegisterRoutes(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Get("/api/cars", h.List)
	r.Get("/api/cars/search", h.Search)
	r.Get("/api/cars/featured", h.Featured)
	r.Get("/api/cars/most-viewed", h.MostViewed)
	r.With(optionalAuth).Get("/api/cars/{id}", h.GetDetail)
	r.Get("/api/cars/{id}/similar", h.Similar)
}

// List handles the newest-first listing with filters
func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := h.normalizer.Normalize(search.CriteriaFromQuery(q))
	page := h.normalizer.Page(q.Get("page"), q.Get("limit"), h.normalizer.Limits.Default)

	result, err := h.carService.List(r.Context(), filter, page)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Search handles the filtered search with a caller-chosen order
func (h *CarHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := search.CriteriaFromQuery(q)
	filter := h.normalizer.Normalize(raw)
	page := h.normalizer.Page(q.Get("page"), q.Get("limit"), h.normalizer.Limits.Default)

	h.logger.Debug("Searching cars",
		zap.String("order_by", raw.OrderBy),
		zap.Int("page", page.Page),
		zap.Int("limit", page.Limit),
	)

	result, err := h.carService.Search(r.Context(), filter, search.ResolveOrder(raw.OrderBy), page)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Featured handles the featured cars list
func (h *CarHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit := h.normalizer.Page("", r.URL.Query().Get("limit"), h.normalizer.Limits.All).Limit

	cars, err := h.carService.Featured(r.Context(), limit)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, cars)
}

// MostViewed handles the most viewed cars list
func (h *CarHandler) MostViewed(w http.ResponseWriter, r *http.Request) {
	limit := h.normalizer.Page("", r.URL.Query().Get("limit"), h.normalizer.Limits.All).Limit

	cars, err := h.carService.MostViewed(r.Context(), limit)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, cars)
}

// GetDetail handles a single car. Every call counts as a view.
func (h *CarHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var viewerID *int64
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		viewerID = &userID
	}

	car, err := h.carService.GetDetail(r.Context(), id, viewerID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, car)
}

// Similar handles the cars resembling a reference car
func (h *CarHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	limit := h.normalizer.Page("", r.URL.Query().Get("limit"), h.normalizer.Limits.Similar).Limit

	cars, err := h.carService.Similar(r.Context(), id, limit)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, cars)
}
