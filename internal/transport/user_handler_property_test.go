package transport

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/repository"
	"car-marketplace/internal/search"
	"car-marketplace/internal/service"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryUserRepository keeps accounts in memory. Methods the handlers under
// test never reach are left to the embedded interface.
type memoryUserRepository struct {
	repository.UserRepository

	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[int64]*domain.User)}
}

func (m *memoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memoryUserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *memoryUserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Phone != nil && *u.Phone == phone })
}

func (m *memoryUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

func newUserRouter() (http.Handler, *memoryUserRepository) {
	repo := newMemoryUserRepository()
	users := service.NewUserService(repo, testSecret, time.Hour, zap.NewNop())
	return newTestRouter(testServices{users: users}), repo
}

// Property: invalid registration data is rejected before an account is created
func TestProperty_InvalidRegistrationDataIsRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("registration with invalid data returns validation errors", prop.ForAll(
		func(invalidCase int) bool {
			router, repo := newUserRouter()

			var reqBody RegisterRequest

			switch invalidCase % 5 {
			case 0:
				// Empty email
				reqBody = RegisterRequest{Name: "Sam Driver", Email: "", Password: "secret1"}
			case 1:
				// Invalid email format
				reqBody = RegisterRequest{Name: "Sam Driver", Email: "not-an-email", Password: "secret1"}
			case 2:
				// Password shorter than six characters
				reqBody = RegisterRequest{Name: "Sam Driver", Email: "sam@example.com", Password: "short"}
			case 3:
				// Missing name
				reqBody = RegisterRequest{Email: "sam@example.com", Password: "secret1"}
			case 4:
				// Malformed phone number
				reqBody = RegisterRequest{Name: "Sam Driver", Email: "sam@example.com", Phone: "12-ab", Password: "secret1"}
			}

			w := serve(router, http.MethodPost, "/api/auth/register", reqBody, "")

			if w.Code != http.StatusBadRequest {
				t.Logf("FAIL: Expected 400 status code, got %d", w.Code)
				return false
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Logf("FAIL: Response missing 'error' field")
				return false
			}
			return len(repo.users) == 0
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: a registered user can log in and the issued token opens protected routes
func TestProperty_IssuedTokensAuthenticate(t *testing.T) {
	// bcrypt makes every iteration slow
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("login token is accepted by the auth middleware", prop.ForAll(
		func(email string, password string, name string) bool {
			router, _ := newUserRouter()

			w := serve(router, http.MethodPost, "/api/auth/register", RegisterRequest{Name: name, Email: email, Password: password}, "")
			if w.Code != http.StatusCreated {
				t.Logf("FAIL: Expected 201 status code, got %d: %s", w.Code, w.Body.String())
				return false
			}

			w = serve(router, http.MethodPost, "/api/auth/login", LoginRequest{Email: strings.ToUpper(email), Password: password}, "")
			if w.Code != http.StatusOK {
				t.Logf("FAIL: Expected 200 status code, got %d", w.Code)
				return false
			}

			var result service.AuthResult
			dataOf(t, w, &result)
			if result.Token == "" || result.User == nil || result.User.Role != domain.RoleUser {
				t.Logf("FAIL: Incomplete auth result")
				return false
			}

			w = serve(router, http.MethodGet, "/api/auth/me", nil, "Bearer "+result.Token)
			if w.Code != http.StatusOK {
				t.Logf("FAIL: Token rejected with %d", w.Code)
				return false
			}

			var me domain.User
			dataOf(t, w, &me)
			return me.ID == result.User.ID && me.Email == email && me.Name == name
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{6,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUserHandler_RegisterConflictAndLoginFailures(t *testing.T) {
	router, _ := newUserRouter()

	body := RegisterRequest{Name: "Sam", Email: "sam@example.com", Phone: "+15550001111", Password: "secret1"}
	require.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/api/auth/register", body, "").Code)

	w := serve(router, http.MethodPost, "/api/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	body.Email = "other@example.com"
	w = serve(router, http.MethodPost, "/api/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "phone")

	w = serve(router, http.MethodPost, "/api/auth/login", LoginRequest{Email: "sam@example.com", Password: "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid email or password")

	w = serve(router, http.MethodPost, "/api/auth/login", LoginRequest{Email: "nobody@example.com", Password: "secret1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_ProfileAndPassword(t *testing.T) {
	router, _ := newUserRouter()

	w := serve(router, http.MethodPost, "/api/auth/register", RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "secret1"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var registered service.AuthResult
	dataOf(t, w, &registered)
	auth := "Bearer " + registered.Token

	w = serve(router, http.MethodPut, "/api/auth/profile", map[string]string{"name": "Samantha"}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var updated domain.User
	dataOf(t, w, &updated)
	assert.Equal(t, "Samantha", updated.Name)
	assert.Equal(t, "sam@example.com", updated.Email)

	w = serve(router, http.MethodPut, "/api/auth/profile", map[string]string{"email": "broken"}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodPost, "/api/auth/change-password", ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "secret2"}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodPost, "/api/auth/change-password", ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "secret2"}, auth)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// stubUserService serves the admin user routes
type stubUserService struct {
	service.UserService

	filter domain.UserFilter
	page   search.PageRequest
	active *bool
	err    error
}

func (s *stubUserService) List(ctx context.Context, filter domain.UserFilter, page search.PageRequest) (*search.Result[*domain.User], error) {
	s.filter, s.page = filter, page
	return search.NewResult([]*domain.User{{ID: 1, Name: "Sam"}}, 1, page), s.err
}

func (s *stubUserService) SetStatus(ctx context.Context, id int64, active bool) (*domain.User, error) {
	s.active = &active
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{ID: id, IsActive: active}, nil
}

func TestUserHandler_AdminList(t *testing.T) {
	users := &stubUserService{}
	router := newTestRouter(testServices{users: users})

	w := serve(router, http.MethodGet, "/api/admin/users?role=admin&isActive=false&search=%20sam%20&page=3", nil, bearer(t, 1, "ADMIN"))
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, users.filter.Role)
	assert.Equal(t, domain.RoleAdmin, *users.filter.Role)
	require.NotNil(t, users.filter.IsActive)
	assert.False(t, *users.filter.IsActive)
	assert.Equal(t, "sam", users.filter.Search)
	assert.Equal(t, 3, users.page.Page)
	assert.Contains(t, w.Body.String(), `"pagination"`)

	serve(router, http.MethodGet, "/api/admin/users?role=owner&isActive=maybe", nil, bearer(t, 1, "ADMIN"))
	assert.Nil(t, users.filter.Role)
	assert.Nil(t, users.filter.IsActive)

	w = serve(router, http.MethodGet, "/api/admin/users", nil, bearer(t, 2, "USER"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserHandler_AdminSetStatus(t *testing.T) {
	users := &stubUserService{}
	router := newTestRouter(testServices{users: users})

	w := serve(router, http.MethodPut, "/api/admin/users/5/status", map[string]interface{}{}, bearer(t, 1, "ADMIN"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, users.active)

	w = serve(router, http.MethodPut, "/api/admin/users/5/status", map[string]bool{"isActive": false}, bearer(t, 1, "ADMIN"))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, users.active)
	assert.False(t, *users.active)

	users.err = service.ErrAdminDeactivation
	w = serve(router, http.MethodPut, "/api/admin/users/1/status", map[string]bool{"isActive": false}, bearer(t, 1, "ADMIN"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
