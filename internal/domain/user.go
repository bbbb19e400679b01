package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role is a user's authorisation level.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// User represents a marketplace account
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user has the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate checks profile fields. Password rules are enforced where the
// plaintext is available.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return InvalidInput("name is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return InvalidInput("email is required")
	}
	if u.Phone != nil && *u.Phone != "" && !phonePattern.MatchString(*u.Phone) {
		return InvalidInput("invalid phone number")
	}
	if !u.Role.Valid() {
		return InvalidInput("invalid user role")
	}
	return nil
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Role     *Role
	IsActive *bool
	Search   string
}
