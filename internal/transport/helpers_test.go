package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"car-marketplace/internal/middleware"
	"car-marketplace/internal/search"
	"car-marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "transport-test-secret"

var testNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

type testServices struct {
	cars       service.CarService
	users      service.UserService
	engagement service.EngagementService
	stats      service.StatisticsService
	brands     service.BrandService
}

// newTestRouter wires every handler the way the server does. Handlers whose
// service is nil are left out.
func newTestRouter(svc testServices) http.Handler {
	logger := zap.NewNop()
	normalizer := &search.Normalizer{Now: func() time.Time { return testNow }, Limits: search.DefaultLimits()}

	auth := middleware.AuthMiddleware(testSecret, logger)
	optionalAuth := middleware.OptionalAuthMiddleware(testSecret, logger)
	admin := middleware.RequireAdmin(logger)

	r := chi.NewRouter()
	if svc.cars != nil {
		NewCarHandler(svc.cars, normalizer, logger).RegisterRoutes(r, optionalAuth)
		NewAdminCarHandler(svc.cars, 1<<20, logger).RegisterRoutes(r, auth, admin)
	}
	if svc.engagement != nil {
		NewEngagementHandler(svc.engagement, normalizer, logger).RegisterRoutes(r, auth)
	}
	if svc.users != nil {
		NewUserHandler(svc.users, normalizer, logger).RegisterRoutes(r, auth, admin)
	}
	if svc.stats != nil {
		NewStatisticsHandler(svc.stats, normalizer, logger).RegisterRoutes(r, auth, admin)
	}
	if svc.brands != nil {
		NewBrandHandler(svc.brands, logger).RegisterRoutes(r)
	}
	return r
}

func bearer(t *testing.T, userID int64, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   "driver@example.com",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func serve(handler http.Handler, method, target string, body interface{}, authorization string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// dataOf decodes the "data" member of a success envelope into v
func dataOf(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, w.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}
