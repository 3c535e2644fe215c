// Package postgres implements the users.Store interface using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ruilibao/live-server/metrics"
	"github.com/ruilibao/live-server/users"
)

// PostgresStore implements the users.Store interface using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore creates a new PostgreSQL credential store
func NewPostgresStore(dsn string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetByUsername retrieves a user record by exact username
func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	metrics.UserStoreQueriesTotal.WithLabelValues("get_by_username").Inc()

	var u users.User
	var lastLoginTime sql.NullTime
	var lastLoginIP sql.NullString

	err := s.db.QueryRowContext(ctx, _SQL_GET_USER_BY_USERNAME, username).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.UserType,
		&lastLoginTime,
		&lastLoginIP,
		&u.Locked,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if lastLoginTime.Valid {
		u.LastLoginTime = lastLoginTime.Time
	}
	if lastLoginIP.Valid {
		u.LastLoginIP = lastLoginIP.String
	}

	return &u, nil
}

// Create inserts a new user record
func (s *PostgresStore) Create(ctx context.Context, u *users.User) error {
	metrics.UserStoreQueriesTotal.WithLabelValues("create").Inc()

	err := s.db.QueryRowContext(ctx, _SQL_CREATE_USER,
		u.Username,
		u.PasswordHash,
		u.UserType,
		u.Locked,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return users.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateLastLogin persists the last-login timestamp and origin address
func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id int64, loginTime time.Time, loginIP string) error {
	metrics.UserStoreQueriesTotal.WithLabelValues("update_last_login").Inc()

	result, err := s.db.ExecContext(ctx, _SQL_UPDATE_LAST_LOGIN, loginTime.UTC(), loginIP, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return users.ErrNotFound
	}
	return nil
}

// SetLocked updates the locked flag for a user record
func (s *PostgresStore) SetLocked(ctx context.Context, username string, locked bool) error {
	metrics.UserStoreQueriesTotal.WithLabelValues("set_locked").Inc()

	result, err := s.db.ExecContext(ctx, _SQL_SET_LOCKED, locked, username)
	if err != nil {
		return fmt.Errorf("failed to update locked flag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return users.ErrNotFound
	}
	return nil
}
