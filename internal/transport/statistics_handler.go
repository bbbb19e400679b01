package transport

import (
	"net/http"

	"car-marketplace/internal/middleware"
	"car-marketplace/internal/search"
	"car-marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StatisticsHandler serves visit counting and the dashboard statistics
type StatisticsHandler struct {
	statsService service.StatisticsService
	normalizer   *search.Normalizer
	logger       *zap.Logger
}

// NewStatisticsHandler creates a new StatisticsHandler
func NewStatisticsHandler(statsService service.StatisticsService, normalizer *search.Normalizer, logger *zap.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		statsService: statsService,
		normalizer:   normalizer,
		logger:       logger,
	}
}

// RegisterRoutes registers the public statistics routes and the admin dashboard
func (h *StatisticsHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Post("/api/statistics/record-visit", h.RecordVisit)
	r.Get("/api/statistics/summary", h.General)

	r.Route("/api/admin/statistics", func(r chi.Router) {
		r.Use(authMiddleware, adminMiddleware)
		r.Get("/", h.General)
		r.Get("/daily-visits", h.DailyVisits)
		r.Get("/cars-by-category", h.CarsByCategory)
		r.Get("/cars-by-make", h.CarsByMake)
		r.Get("/average-price", h.AveragePrice)
		r.Get("/cars-by-year", h.CarsByYear)
		r.Get("/recently-added", h.RecentlyAdded)
		r.Get("/new-users", h.NewUsers)
		r.Get("/engagement", h.Engagement)
	})
}

// RecordVisit counts one site visit for today
func (h *StatisticsHandler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	if err := h.statsService.RecordVisit(r.Context()); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, message{Message: "visit recorded"})
}

// General returns the dashboard summary
func (h *StatisticsHandler) General(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.General(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, stats)
}

// DailyVisits returns the zero-filled visit series of the last days
func (h *StatisticsHandler) DailyVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := h.statsService.DailyVisits(r.Context(), queryInt(r, "days", service.DefaultStatsDays))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, visits)
}

func (h *StatisticsHandler) CarsByCategory(w http.ResponseWriter, r *http.Request) {
	counts, err := h.statsService.CarsByCategory(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, counts)
}

func (h *StatisticsHandler) CarsByMake(w http.ResponseWriter, r *http.Request) {
	counts, err := h.statsService.CarsByMake(r.Context(), queryInt(r, "limit", h.normalizer.Limits.Default))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, counts)
}

// AveragePrice accepts the same filters as the car search
func (h *StatisticsHandler) AveragePrice(w http.ResponseWriter, r *http.Request) {
	filter := h.normalizer.Normalize(search.CriteriaFromQuery(r.URL.Query()))

	stats, err := h.statsService.AveragePrice(r.Context(), filter)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, stats)
}

func (h *StatisticsHandler) CarsByYear(w http.ResponseWriter, r *http.Request) {
	counts, err := h.statsService.CarsByYear(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, counts)
}

func (h *StatisticsHandler) RecentlyAdded(w http.ResponseWriter, r *http.Request) {
	counts, err := h.statsService.RecentlyAdded(r.Context(), queryInt(r, "days", service.DefaultStatsDays))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, counts)
}

func (h *StatisticsHandler) NewUsers(w http.ResponseWriter, r *http.Request) {
	counts, err := h.statsService.NewUsers(r.Context(), queryInt(r, "days", service.DefaultStatsDays))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, counts)
}

func (h *StatisticsHandler) Engagement(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Engagement(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithData(w, http.StatusOK, stats)
}
