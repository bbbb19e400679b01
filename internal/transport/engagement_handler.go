package transport

import (
	"net/http"

	"car-marketplace/internal/middleware"
	"car-marketplace/internal/search"
	"car-marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PriceAlertRequest represents the price alert payload
type PriceAlertRequest struct {
	TargetPrice float64 `json:"targetPrice" validate:"gt=0"`
}

// EngagementHandler handles favorites, price alerts and browsing history
type EngagementHandler struct {
	engagementService service.EngagementService
	normalizer        *search.Normalizer
	logger            *zap.Logger
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(engagementService service.EngagementService, normalizer *search.Normalizer, logger *zap.Logger) *EngagementHandler {
	return &EngagementHandler{
		engagementService: engagementService,
		normalizer:        normalizer,
		logger:            logger,
	}
}

// RegisterRoutes registers the engagement routes, all behind authMiddleware
func (h *EngagementHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/api/cars/{id}/favorite", h.AddFavorite)
		r.Delete("/api/cars/{id}/favorite", h.RemoveFavorite)
		r.Post("/api/cars/{id}/price-alert", h.AddPriceAlert)
		r.Delete("/api/cars/price-alert/{alertId}", h.RemovePriceAlert)

		r.Get("/api/cars/user/favorites", h.Favorites)
		r.Get("/api/cars/user/price-alerts", h.PriceAlerts)
		r.Get("/api/cars/user/history", h.History)
	})
}

// AddFavorite handles saving a car to the user's favorites
func (h *EngagementHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	carID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.engagementService.AddFavorite(r.Context(), userID, carID); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusCreated, message{Message: "car added to favorites"})
}

// RemoveFavorite handles removing a car from the user's favorites
func (h *EngagementHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	carID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.engagementService.RemoveFavorite(r.Context(), userID, carID); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, message{Message: "car removed from favorites"})
}

// Favorites handles the paged list of favorite cars
func (h *EngagementHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page := h.normalizer.Page(q.Get("page"), q.Get("limit"), h.normalizer.Limits.Default)

	result, err := h.engagementService.Favorites(r.Context(), userID, page)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// AddPriceAlert handles creating a price alert on a car
func (h *EngagementHandler) AddPriceAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	carID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req PriceAlertRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Price alert validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	alert, err := h.engagementService.AddPriceAlert(r.Context(), userID, carID, req.TargetPrice)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Price alert created",
		zap.Int64("user_id", userID),
		zap.Int64("car_id", carID),
		zap.Int64("alert_id", alert.ID),
	)
	middleware.RespondWithData(w, http.StatusCreated, alert)
}

// RemovePriceAlert handles deleting one of the user's price alerts
func (h *EngagementHandler) RemovePriceAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	alertID, ok := pathID(w, r, "alertId")
	if !ok {
		return
	}

	if err := h.engagementService.RemovePriceAlert(r.Context(), userID, alertID); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, message{Message: "price alert removed"})
}

// PriceAlerts handles the list of the user's price alerts
func (h *EngagementHandler) PriceAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	alerts, err := h.engagementService.PriceAlerts(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, alerts)
}

// History handles the paged browsing history
func (h *EngagementHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page := h.normalizer.Page(q.Get("page"), q.Get("limit"), h.normalizer.Limits.Default)

	result, err := h.engagementService.History(r.Context(), userID, page)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}
