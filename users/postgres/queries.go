package postgres

// SQL query constants for credential store operations

const (
	// _SQL_GET_USER_BY_USERNAME retrieves a user record by username
	_SQL_GET_USER_BY_USERNAME = `
		SELECT id, username, password_hash, user_type,
		       last_login_time, last_login_ip, locked, created_at, updated_at
		FROM users
		WHERE username = $1`

	// _SQL_CREATE_USER creates a new user record
	_SQL_CREATE_USER = `
		INSERT INTO users (username, password_hash, user_type, locked)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	// _SQL_UPDATE_LAST_LOGIN updates the last-login fields of a single record
	_SQL_UPDATE_LAST_LOGIN = `
		UPDATE users
		SET last_login_time = $1, last_login_ip = $2, updated_at = NOW()
		WHERE id = $3`

	// _SQL_SET_LOCKED updates the locked flag by username
	_SQL_SET_LOCKED = `
		UPDATE users
		SET locked = $1, updated_at = NOW()
		WHERE username = $2`
)
