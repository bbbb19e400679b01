package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"car-marketplace/internal/domain"
	"car-marketplace/internal/search"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound = domain.NewError(domain.KindNotFound, "user not found")
	ErrEmailTaken   = domain.NewError(domain.KindConflict, "user with this email already exists")
	ErrPhoneTaken   = domain.NewError(domain.KindConflict, "user with this phone already exists")
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, phone, password_hash, role, is_active, created_at, updated_at`

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, filter domain.UserFilter, page search.PageRequest) ([]*domain.User, int, error)
	Count(ctx context.Context, filter domain.UserFilter) (int, error)
	NewUsersPerDay(ctx context.Context, since time.Time) ([]domain.DailyCount, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// uniqueError maps a unique constraint violation to the matching conflict error
func uniqueError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "phone") {
			return ErrPhoneTaken
		}
		return ErrEmailTaken
	}
	return nil
}

// Create inserts a new user into the database using parameterized queries
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, phone, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if conflict := uniqueError(err); conflict != nil {
			return conflict
		}
		return domain.Persistence("failed to create user", err)
	}

	return nil
}

// Update writes the profile fields of a user
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, phone = $4, role = $5, is_active = $6
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, user.ID, user.Name, user.Email, user.Phone, user.Role, user.IsActive).
		Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if conflict := uniqueError(err); conflict != nil {
			return conflict
		}
		return domain.Persistence("failed to update user", err)
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execOne(ctx, "failed to update password", `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
}

// SetActive enables or disables an account
func (r *userRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.execOne(ctx, "failed to update user status", `UPDATE users SET is_active = $2 WHERE id = $1`, id, active)
}

// Delete removes a user and, by cascade, their engagement records
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, "failed to delete user", `DELETE FROM users WHERE id = $1`, id)
}

func (r *userRepository) execOne(ctx context.Context, failure, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Persistence(failure, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Persistence("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// FindByEmail retrieves a user by email using parameterized queries
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByPhone retrieves a user by phone number
func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.findOne(ctx, "phone", phone)
}

// FindByID retrieves a user by ID using parameterized queries
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

// findOne looks a user up by a unique column; column is never caller input
func (r *userRepository) findOne(ctx context.Context, column string, value any) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, domain.Persistence("failed to find user by "+column, err)
	}

	return user, nil
}

func userWhere(filter domain.UserFilter) (string, []any) {
	var conditions []string
	var args []any
	argIndex := 1

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIndex))
		args = append(args, string(*filter.Role))
		argIndex++
	}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filter.IsActive)
		argIndex++
	}

	if text := strings.TrimSpace(filter.Search); text != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+text+"%")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns one page of users, newest first, plus the total matching count
func (r *userRepository) List(ctx context.Context, filter domain.UserFilter, page search.PageRequest) ([]*domain.User, int, error) {
	whereClause, args := userWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM users %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, domain.Persistence("failed to count users", err)
	}

	argIndex := len(args) + 1
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, userColumns, whereClause, argIndex, argIndex+1)
	args = append(args, page.Limit, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, domain.Persistence("failed to list users", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, domain.Persistence("failed to scan user", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, domain.Persistence("error iterating users", err)
	}

	return users, total, nil
}

// Count returns the number of users matching filter
func (r *userRepository) Count(ctx context.Context, filter domain.UserFilter) (int, error) {
	whereClause, args := userWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM users %s", whereClause), args...).Scan(&total); err != nil {
		return 0, domain.Persistence("failed to count users", err)
	}

	return total, nil
}

// NewUsersPerDay returns the number of registrations per day since the given time
func (r *userRepository) NewUsersPerDay(ctx context.Context, since time.Time) ([]domain.DailyCount, error) {
	return dailyCounts(ctx, r.db, "users", since)
}
