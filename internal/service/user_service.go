package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/repository"
	"car-marketplace/internal/search"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// MinPasswordLength is the shortest accepted password
	MinPasswordLength = 6
)

var (
	ErrInvalidCredentials = domain.NewError(domain.KindUnauthorized, "invalid email or password")
	ErrInvalidToken       = domain.NewError(domain.KindUnauthorized, "invalid token")
	ErrAccountDisabled    = domain.NewError(domain.KindForbidden, "this account has been disabled")
	ErrWrongPassword      = domain.NewError(domain.KindInvalidInput, "current password is incorrect")
	ErrAdminDeactivation  = domain.NewError(domain.KindForbidden, "administrator accounts cannot be deactivated")
)

// RegisterInput holds the fields of a new account
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// ProfileUpdate holds the editable profile fields. Nil fields are kept.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

// AuthResult is returned on successful registration or login
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// UserService defines the interface for account use cases
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ValidateToken(tokenString string) (*Claims, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error

	List(ctx context.Context, filter domain.UserFilter, page search.PageRequest) (*search.Result[*domain.User], error)
	SetStatus(ctx context.Context, id int64, active bool) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	EnsureAdmin(ctx context.Context, name, email, password string) error
}

// Claims represents the JWT claims
type Claims struct {
	UserID int64       `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type userService struct {
	userRepo    repository.UserRepository
	jwtSecret   string
	tokenExpiry time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewUserService creates a new instance of UserService
func NewUserService(userRepo repository.UserRepository, jwtSecret string, tokenExpiry time.Duration, logger *zap.Logger) UserService {
	return &userService{
		userRepo:    userRepo,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		logger:      logger,
		now:         time.Now,
	}
}

// Register creates a new user account with hashed password
func (s *userService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if len(input.Password) < MinPasswordLength {
		return nil, domain.InvalidInput(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	user := &domain.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    normalizeEmail(input.Email),
		Phone:    optionalPhone(input.Phone),
		Role:     domain.RoleUser,
		IsActive: true,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, 0, user.Email, user.Phone); err != nil {
		return nil, err
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hashedPassword

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.authenticate(user)
}

// Login authenticates a user and returns a signed token
func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := verifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.authenticate(user)
}

// ValidateToken validates a JWT token and returns the claims
func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// UpdateProfile merges update into the stored profile. A changed email or
// phone must not belong to another account.
func (s *userService) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var newEmail string
	var newPhone *string

	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Email != nil {
		if email := normalizeEmail(*update.Email); email != user.Email {
			newEmail = email
			user.Email = email
		}
	}
	if update.Phone != nil {
		phone := optionalPhone(*update.Phone)
		if phone != nil && (user.Phone == nil || *user.Phone != *phone) {
			newPhone = phone
		}
		user.Phone = phone
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, id, newEmail, newPhone); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *userService) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := verifyPassword(user.PasswordHash, currentPassword); err != nil {
		return ErrWrongPassword
	}

	if len(newPassword) < MinPasswordLength {
		return domain.InvalidInput(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, id, hashedPassword)
}

// List returns one page of users for administrators
func (s *userService) List(ctx context.Context, filter domain.UserFilter, page search.PageRequest) (*search.Result[*domain.User], error) {
	users, total, err := s.userRepo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return search.NewResult(users, total, page), nil
}

// SetStatus enables or disables an account. Administrators stay active.
func (s *userService) SetStatus(ctx context.Context, id int64, active bool) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin() && !active {
		return nil, ErrAdminDeactivation
	}

	if err := s.userRepo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}

	user.IsActive = active
	return user, nil
}

// Delete removes an account
func (s *userService) Delete(ctx context.Context, id int64) error {
	return s.userRepo.Delete(ctx, id)
}

// EnsureAdmin creates the bootstrap administrator when no account uses email
func (s *userService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.logger.Info("Administrator bootstrap skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			s.logger.Warn("Bootstrap administrator email belongs to a regular account", zap.String("email", email))
		}
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to look up administrator: %w", err)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := admin.Validate(); err != nil {
		return err
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	s.logger.Info("Created bootstrap administrator", zap.String("email", email), zap.Int64("user_id", admin.ID))
	return nil
}

// ensureUnique rejects an email or phone already used by another account
func (s *userService) ensureUnique(ctx context.Context, selfID int64, email string, phone *string) error {
	if email != "" {
		existing, err := s.userRepo.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if existing != nil && existing.ID != selfID {
			return repository.ErrEmailTaken
		}
	}

	if phone != nil {
		existing, err := s.userRepo.FindByPhone(ctx, *phone)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if existing != nil && existing.ID != selfID {
			return repository.ErrPhoneTaken
		}
	}

	return nil
}

func (s *userService) authenticate(user *domain.User) (*AuthResult, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// generateToken issues a JWT carrying user ID, email and role
func (s *userService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// hashPassword hashes a password using bcrypt
func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// verifyPassword verifies a password against a bcrypt hash
func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optionalPhone(phone string) *string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	return &phone
}
