package config

import "time"

// DefaultAppConfig returns an AppConfig struct with sensible default values
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			ListenAddr:   ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Auth: AuthConfig{
			MaxAttempts:   5,
			AttemptWindow: 10 * time.Minute,
			BcryptCost:    0, // 0 selects bcrypt.DefaultCost
			LoginRate:     10,
			LoginBurst:    20,
		},
		Session: SessionConfig{
			StoreType:    "memory",
			Timeout:      30 * time.Minute,
			CookieName:   "LIVESESSIONID",
			CookieSecure: false,
			RedisAddr:    "localhost:6379",
			RedisDB:      0,
			RedisPrefix:  "liveserver:",
		},
		Upload: UploadConfig{
			PublicPrefix: "/upload",
			StorageRoot:  "/var/lib/live-server/upload",
		},
		UserStore: UserStoreConfig{
			Driver:     "sqlite",
			SQLitePath: "./live-server.sqlite3",
			DSN:        "",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
