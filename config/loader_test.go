package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("chdir back failed: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	// Run from a directory without config files so only defaults apply.
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("unexpected listen addr %q", cfg.Server.ListenAddr)
	}
	if cfg.Upload.PublicPrefix != "/upload" {
		t.Errorf("unexpected public prefix %q", cfg.Upload.PublicPrefix)
	}
	if cfg.Session.Timeout != 30*time.Minute {
		t.Errorf("unexpected session timeout %v", cfg.Session.Timeout)
	}
	if cfg.Auth.MaxAttempts != 5 {
		t.Errorf("unexpected max attempts %d", cfg.Auth.MaxAttempts)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
server:
  listen_addr: ":9000"
upload:
  public_prefix: "/files"
  storage_root: "/srv/files"
log:
  level: "debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := LoadConfigFromFile(configPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("file value not applied: %q", cfg.Server.ListenAddr)
	}
	if cfg.Upload.PublicPrefix != "/files" {
		t.Errorf("file value not applied: %q", cfg.Upload.PublicPrefix)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("file value not applied: %q", cfg.Log.Level)
	}
	// Untouched fields keep their defaults.
	if cfg.Session.CookieName != "LIVESESSIONID" {
		t.Errorf("default lost: %q", cfg.Session.CookieName)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LIVESERVER_LOG_LEVEL", "error")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Log.Level != "error" {
		t.Errorf("env value not applied: %q", cfg.Log.Level)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{
			name:   "missing listen addr",
			mutate: func(c *AppConfig) { c.Server.ListenAddr = "" },
		},
		{
			name:   "missing public prefix",
			mutate: func(c *AppConfig) { c.Upload.PublicPrefix = "" },
		},
		{
			name:   "missing storage root",
			mutate: func(c *AppConfig) { c.Upload.StorageRoot = "" },
		},
		{
			name:   "unknown user store driver",
			mutate: func(c *AppConfig) { c.UserStore.Driver = "oracle" },
		},
		{
			name:   "postgres without dsn",
			mutate: func(c *AppConfig) { c.UserStore.Driver = "postgres"; c.UserStore.DSN = "" },
		},
		{
			name:   "unknown session store",
			mutate: func(c *AppConfig) { c.Session.StoreType = "memcached" },
		},
		{
			name:   "non-positive session timeout",
			mutate: func(c *AppConfig) { c.Session.Timeout = 0 },
		},
		{
			name:   "attempt window missing",
			mutate: func(c *AppConfig) { c.Auth.MaxAttempts = 3; c.Auth.AttemptWindow = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAppConfig()
			tt.mutate(&cfg)
			if err := validateConfig(&cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
