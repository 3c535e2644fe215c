// Package config provides configuration management for live-server.
// It handles loading and validating configuration from YAML/JSON files and
// environment variables.
package config

import "time"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	Session   SessionConfig   `koanf:"session"`
	Upload    UploadConfig    `koanf:"upload"`
	UserStore UserStoreConfig `koanf:"user_store"`
	Log       LogConfig       `koanf:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr   string        `koanf:"listen_addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// MaxAttempts failed logins for one username within AttemptWindow
	// refuse further attempts for that username.
	MaxAttempts   int           `koanf:"max_attempts"`
	AttemptWindow time.Duration `koanf:"attempt_window"`
	BcryptCost    int           `koanf:"bcrypt_cost"`
	// LoginRate/LoginBurst throttle the login endpoints as a whole,
	// independent of the per-username tracker.
	LoginRate  float64 `koanf:"login_rate"`
	LoginBurst int     `koanf:"login_burst"`
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	StoreType     string        `koanf:"store_type"` // "memory" or "redis"
	Timeout       time.Duration `koanf:"timeout"`
	CookieName    string        `koanf:"cookie_name"`
	CookieSecure  bool          `koanf:"cookie_secure"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	RedisPrefix   string        `koanf:"redis_prefix"`
}

// UploadConfig holds upload file serving configuration
type UploadConfig struct {
	// PublicPrefix marks request paths that resolve into StorageRoot.
	PublicPrefix string `koanf:"public_prefix"`
	StorageRoot  string `koanf:"storage_root"`
}

// UserStoreConfig holds credential store configuration
type UserStoreConfig struct {
	Driver     string `koanf:"driver"` // "sqlite" or "postgres"
	DSN        string `koanf:"dsn"`
	SQLitePath string `koanf:"sqlite_path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
