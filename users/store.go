// Package users defines the user record model and the credential store
// interface backing authentication.
package users

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Common credential store errors
var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

// User represents a platform account record
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	UserType      string    `json:"user_type"` // "admin", "anchor" or "member"
	LastLoginTime time.Time `json:"last_login_time"`
	LastLoginIP   string    `json:"last_login_ip"`
	Locked        bool      `json:"locked"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CheckPassword compares a candidate plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// HashPassword produces a bcrypt hash for a plaintext password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Store defines the interface for credential store operations
type Store interface {
	// GetByUsername retrieves a user record by exact username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Create inserts a new user record
	Create(ctx context.Context, u *User) error

	// UpdateLastLogin persists the last-login timestamp and origin address
	// for a single user record
	UpdateLastLogin(ctx context.Context, id int64, loginTime time.Time, loginIP string) error

	// SetLocked updates the locked flag for a user record
	SetLocked(ctx context.Context, username string, locked bool) error

	// Close releases the store's resources
	Close() error
}
