// Package sqlite implements the users.Store interface on an embedded
// SQLite database. Intended for single-node deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"go.uber.org/zap"

	"github.com/ruilibao/live-server/metrics"
	"github.com/ruilibao/live-server/users"
)

type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    user_type TEXT NOT NULL DEFAULT 'member',
    last_login_time TEXT,
    last_login_ip TEXT,
    locked INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	metrics.UserStoreQueriesTotal.WithLabelValues("get_by_username").Inc()

	query := `
		SELECT id, username, password_hash, user_type,
		       last_login_time, last_login_ip, locked, created_at, updated_at
		FROM users
		WHERE username = ?`

	var u users.User
	var lastLoginTime, lastLoginIP sql.NullString
	var locked int64
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.UserType,
		&lastLoginTime,
		&lastLoginIP,
		&locked,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Locked = locked != 0
	if lastLoginTime.Valid {
		if t, err := time.Parse(time.RFC3339Nano, lastLoginTime.String); err == nil {
			u.LastLoginTime = t
		}
	}
	if lastLoginIP.Valid {
		u.LastLoginIP = lastLoginIP.String
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		u.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		u.UpdatedAt = t
	}

	return &u, nil
}

func (s *SQLiteStore) Create(ctx context.Context, u *users.User) error {
	metrics.UserStoreQueriesTotal.WithLabelValues("create").Inc()

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
		INSERT INTO users (username, password_hash, user_type, locked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	locked := 0
	if u.Locked {
		locked = 1
	}

	result, err := s.db.ExecContext(ctx, query,
		u.Username,
		u.PasswordHash,
		u.UserType,
		locked,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return users.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted user id: %w", err)
	}
	u.ID = id

	return nil
}

func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, id int64, loginTime time.Time, loginIP string) error {
	metrics.UserStoreQueriesTotal.WithLabelValues("update_last_login").Inc()

	query := `
		UPDATE users
		SET last_login_time = ?, last_login_ip = ?, updated_at = ?
		WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		loginTime.UTC().Format(time.RFC3339Nano),
		loginIP,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
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

func (s *SQLiteStore) SetLocked(ctx context.Context, username string, locked bool) error {
	metrics.UserStoreQueriesTotal.WithLabelValues("set_locked").Inc()

	lockedVal := 0
	if locked {
		lockedVal = 1
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET locked = ?, updated_at = ? WHERE username = ?`,
		lockedVal,
		time.Now().UTC().Format(time.RFC3339Nano),
		username,
	)
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
