package transport

import (
	"context"
	"net/http"
	"testing"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/search"
	"car-marketplace/internal/service"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngagementService struct {
	service.EngagementService

	userID      int64
	carID       int64
	targetPrice float64
	page        search.PageRequest
	err         error
}

func (s *stubEngagementService) AddFavorite(ctx context.Context, userID, carID int64) error {
	s.userID, s.carID = userID, carID
	return s.err
}

func (s *stubEngagementService) RemoveFavorite(ctx context.Context, userID, carID int64) error {
	s.userID, s.carID = userID, carID
	return s.err
}

func (s *stubEngagementService) Favorites(ctx context.Context, userID int64, page search.PageRequest) (*search.Result[*domain.Car], error) {
	s.userID, s.page = userID, page
	return search.NewResult[*domain.Car](nil, 0, page), s.err
}

func (s *stubEngagementService) AddPriceAlert(ctx context.Context, userID, carID int64, targetPrice float64) (*domain.PriceAlert, error) {
	s.userID, s.carID, s.targetPrice = userID, carID, targetPrice
	if s.err != nil {
		return nil, s.err
	}
	return &domain.PriceAlert{ID: 1, UserID: userID, CarID: carID, TargetPrice: targetPrice}, nil
}

func (s *stubEngagementService) RemovePriceAlert(ctx context.Context, userID, alertID int64) error {
	s.userID, s.carID = userID, alertID
	return s.err
}

func (s *stubEngagementService) History(ctx context.Context, userID int64, page search.PageRequest) (*search.Result[*domain.BrowsingEntry], error) {
	s.userID, s.page = userID, page
	return search.NewResult[*domain.BrowsingEntry](nil, 0, page), s.err
}

// Property: every engagement route requires a signed-in user
func TestProperty_EngagementRoutesRequireAuth(t *testing.T) {
	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/cars/1/favorite"},
		{http.MethodDelete, "/api/cars/1/favorite"},
		{http.MethodPost, "/api/cars/1/price-alert"},
		{http.MethodDelete, "/api/cars/price-alert/1"},
		{http.MethodGet, "/api/cars/user/favorites"},
		{http.MethodGet, "/api/cars/user/price-alerts"},
		{http.MethodGet, "/api/cars/user/history"},
	}

	properties := gopter.NewProperties(nil)

	properties.Property("anonymous requests get 401", prop.ForAll(
		func(pick int) bool {
			engagement := &stubEngagementService{}
			router := newTestRouter(testServices{engagement: engagement})

			route := routes[pick%len(routes)]
			w := serve(router, route.method, route.path, nil, "")
			return w.Code == http.StatusUnauthorized && engagement.userID == 0
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestEngagementHandler_Favorites(t *testing.T) {
	engagement := &stubEngagementService{}
	router := newTestRouter(testServices{engagement: engagement})
	auth := bearer(t, 21, "USER")

	w := serve(router, http.MethodPost, "/api/cars/8/favorite", nil, auth)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(21), engagement.userID)
	assert.Equal(t, int64(8), engagement.carID)

	w = serve(router, http.MethodGet, "/api/cars/user/favorites?page=2&limit=4", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, search.PageRequest{Page: 2, Limit: 4}, engagement.page)
	assert.Contains(t, w.Body.String(), `"data":[]`)

	engagement.err = domain.NotFound("car not found")
	w = serve(router, http.MethodPost, "/api/cars/404/favorite", nil, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEngagementHandler_PriceAlerts(t *testing.T) {
	engagement := &stubEngagementService{}
	router := newTestRouter(testServices{engagement: engagement})
	auth := bearer(t, 21, "USER")

	w := serve(router, http.MethodPost, "/api/cars/8/price-alert", map[string]float64{"targetPrice": 0}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, engagement.carID)

	w = serve(router, http.MethodPost, "/api/cars/8/price-alert", map[string]float64{"targetPrice": 18500}, auth)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 18500.0, engagement.targetPrice)

	var alert domain.PriceAlert
	dataOf(t, w, &alert)
	assert.Equal(t, int64(8), alert.CarID)

	engagement.err = service.ErrAlertNotOwned
	w = serve(router, http.MethodDelete, "/api/cars/price-alert/3", nil, auth)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, int64(3), engagement.carID)
}
