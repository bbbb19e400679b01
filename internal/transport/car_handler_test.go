package transport

import (
	"context"
	"encoding/json"
	"fmt"
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

// stubCarService records the arguments of the last call
type stubCarService struct {
	service.CarService

	filter   search.Filter
	order    search.Order
	page     search.PageRequest
	limit    int
	id       int64
	viewerID *int64
	upload   *service.Upload
	isMain   bool
	created  *domain.Car
	patch    *service.CarPatch

	cars []*domain.Car
	err  error
}

func (s *stubCarService) List(ctx context.Context, filter search.Filter, page search.PageRequest) (*search.Result[*domain.Car], error) {
	return s.Search(ctx, filter, search.Newest, page)
}

func (s *stubCarService) Search(ctx context.Context, filter search.Filter, order search.Order, page search.PageRequest) (*search.Result[*domain.Car], error) {
	s.filter, s.order, s.page = filter, order, page
	if s.err != nil {
		return nil, s.err
	}
	return search.NewResult(s.cars, len(s.cars), page), nil
}

func (s *stubCarService) Featured(ctx context.Context, limit int) ([]*domain.Car, error) {
	s.limit = limit
	return s.cars, s.err
}

func (s *stubCarService) MostViewed(ctx context.Context, limit int) ([]*domain.Car, error) {
	s.limit = limit
	return s.cars, s.err
}

func (s *stubCarService) GetDetail(ctx context.Context, id int64, viewerID *int64) (*domain.Car, error) {
	s.id, s.viewerID = id, viewerID
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Car{ID: id, Title: "Toyota RAV4"}, nil
}

func (s *stubCarService) Similar(ctx context.Context, id int64, limit int) ([]*domain.Car, error) {
	s.id, s.limit = id, limit
	return s.cars, s.err
}

func (s *stubCarService) Create(ctx context.Context, car *domain.Car) (*domain.Car, error) {
	s.created = car
	car.ID = 99
	return car, s.err
}

func (s *stubCarService) Update(ctx context.Context, id int64, patch service.CarPatch) (*domain.Car, error) {
	s.id, s.patch = id, &patch
	return &domain.Car{ID: id}, s.err
}

func (s *stubCarService) AddImage(ctx context.Context, carID int64, upload service.Upload, isMain, is360View bool) (*domain.CarImage, error) {
	s.id, s.upload, s.isMain = carID, &upload, isMain
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CarImage{ID: 5, CarID: carID, URL: "/uploads/car-images/x.png", IsMain: isMain, Is360View: is360View}, nil
}

func TestCarHandler_SearchNormalizesQuery(t *testing.T) {
	cars := &stubCarService{cars: []*domain.Car{{ID: 1}, {ID: 2}}}
	router := newTestRouter(testServices{cars: cars})

	w := serve(router, http.MethodGet,
		"/api/cars/search?brandId=Toyota&make=Honda&yearMax=2020&priceMin=15000&type=used&doors=0&orderBy=price_asc&page=2&limit=5", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "Toyota", cars.filter.Make)
	assert.Equal(t, domain.CarTypeUsed, cars.filter.Type)
	assert.Nil(t, cars.filter.Doors)
	require.NotNil(t, cars.filter.YearRange)
	assert.Equal(t, search.IntRange{Min: search.MinYear, Max: 2020}, *cars.filter.YearRange)
	require.NotNil(t, cars.filter.PriceRange)
	assert.Equal(t, search.FloatRange{Min: 15000, Max: search.MaxSafeInteger}, *cars.filter.PriceRange)
	assert.Equal(t, search.ResolveOrder(search.OrderPriceAsc), cars.order)
	assert.Equal(t, search.PageRequest{Page: 2, Limit: 5}, cars.page)

	var body search.Result[*domain.Car]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 2, body.Pagination.Page)
	assert.True(t, body.Pagination.HasPrevPage)
}

func TestCarHandler_SearchDropsInvalidText(t *testing.T) {
	cars := &stubCarService{}
	router := newTestRouter(testServices{cars: cars})

	w := serve(router, http.MethodGet, "/api/cars/search?searchText=%FF&model=%C3%28&fuel=diesel&page=9223372036854775807", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, cars.filter.SearchText)
	assert.Empty(t, cars.filter.Model)
	assert.Equal(t, "diesel", cars.filter.Fuel)
	assert.GreaterOrEqual(t, cars.page.Offset(), 0)
	assert.Contains(t, w.Body.String(), `"hasNextPage":false`)
}

func TestCarHandler_ListIsAlwaysNewestFirst(t *testing.T) {
	cars := &stubCarService{}
	router := newTestRouter(testServices{cars: cars})

	w := serve(router, http.MethodGet, "/api/cars?orderBy=price_desc&limit=abc", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, search.Newest, cars.order)
	assert.Equal(t, search.PageRequest{Page: 1, Limit: 10}, cars.page)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

// Property: whatever limit the caller sends, the service sees a limit within [1, 1000]
func TestProperty_CarLimitIsClamped(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("limit is clamped to the allowed range", prop.ForAll(
		func(limit int, page int) bool {
			cars := &stubCarService{}
			router := newTestRouter(testServices{cars: cars})

			w := serve(router, http.MethodGet, fmt.Sprintf("/api/cars/search?limit=%d&page=%d", limit, page), nil, "")
			if w.Code != http.StatusOK {
				return false
			}
			return cars.page.Limit >= 1 && cars.page.Limit <= 1000 && cars.page.Page >= 1
		},
		gen.IntRange(-5000, 5000),
		gen.IntRange(-10, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCarHandler_DefaultLimits(t *testing.T) {
	cars := &stubCarService{}
	router := newTestRouter(testServices{cars: cars})

	serve(router, http.MethodGet, "/api/cars/featured", nil, "")
	assert.Equal(t, 1000, cars.limit)

	serve(router, http.MethodGet, "/api/cars/most-viewed?limit=3", nil, "")
	assert.Equal(t, 3, cars.limit)

	w := serve(router, http.MethodGet, "/api/cars/7/similar", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), cars.id)
	assert.Equal(t, 6, cars.limit)
}

func TestCarHandler_GetDetail(t *testing.T) {
	cars := &stubCarService{}
	router := newTestRouter(testServices{cars: cars})

	w := serve(router, http.MethodGet, "/api/cars/12", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, cars.viewerID)

	var car domain.Car
	dataOf(t, w, &car)
	assert.Equal(t, int64(12), car.ID)

	w = serve(router, http.MethodGet, "/api/cars/12", nil, bearer(t, 4, "USER"))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, cars.viewerID)
	assert.Equal(t, int64(4), *cars.viewerID)

	// an invalid token only loses the history entry
	w = serve(router, http.MethodGet, "/api/cars/12", nil, "Bearer nonsense")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, cars.viewerID)
}

func TestCarHandler_Errors(t *testing.T) {
	cars := &stubCarService{err: domain.NotFound("car not found")}
	router := newTestRouter(testServices{cars: cars})

	w := serve(router, http.MethodGet, "/api/cars/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/api/cars/404/similar", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "car not found")

	cars.err = domain.Persistence("failed to search cars", fmt.Errorf("connection reset"))
	w = serve(router, http.MethodGet, "/api/cars/search", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
