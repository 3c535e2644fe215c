package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ruilibao/live-server/auth"
	"github.com/ruilibao/live-server/config"
	"github.com/ruilibao/live-server/server"
	"github.com/ruilibao/live-server/session"
	sessionmemory "github.com/ruilibao/live-server/session/memory"
	sessionredis "github.com/ruilibao/live-server/session/redis"
	"github.com/ruilibao/live-server/uploads"
	"github.com/ruilibao/live-server/users"
	userspostgres "github.com/ruilibao/live-server/users/postgres"
	"github.com/ruilibao/live-server/users/schema"
	userssqlite "github.com/ruilibao/live-server/users/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "live-server",
	Short: "live-server - authentication and upload gateway for the live platform",
	Long: `live-server is the authentication/session gateway of the live platform.
It verifies user credentials, keeps server-side sessions and serves
previously uploaded files from the configured storage root.`,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the live-server gateway",
	Long:  "Start the gateway with the configured user store, session store and upload root",
	RunE:  runServer,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the live-server configuration and display the loaded settings",
	RunE:  validateConfig,
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User administration commands",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username> <password> [user-type]",
	Short: "Create a user in the credential store",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runUserAdd,
}

var userLockCmd = &cobra.Command{
	Use:   "lock <username>",
	Short: "Lock a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return runUserSetLocked(args[0], true) },
}

var userUnlockCmd = &cobra.Command{
	Use:   "unlock <username>",
	Short: "Unlock a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return runUserSetLocked(args[0], false) },
}

var configFilePath string

func main() {
	serverCmd.Flags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")

	configCmd.AddCommand(validateCmd)
	userCmd.AddCommand(userAddCmd, userLockCmd, userUnlockCmd)
	rootCmd.AddCommand(serverCmd, configCmd, userCmd)

	// If no command specified, default to server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "server")
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// runServer starts the gateway
func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
		}
	}()

	logger.Info("Starting live-server gateway",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("user_store", cfg.UserStore.Driver),
		zap.String("session_store", cfg.Session.StoreType))

	// Initialize credential store
	logger.Info("Initializing credential store")
	userStore, err := newUserStore(&cfg.UserStore, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}
	defer userStore.Close()

	// Initialize session store
	logger.Info("Initializing session store")
	sessionStore, err := newSessionStore(&cfg.Session, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer sessionStore.Close()

	// Initialize upload store
	logger.Info("Initializing upload store",
		zap.String("public_prefix", cfg.Upload.PublicPrefix),
		zap.String("storage_root", cfg.Upload.StorageRoot))
	uploadStore, err := uploads.NewStore(cfg.Upload.PublicPrefix, cfg.Upload.StorageRoot)
	if err != nil {
		return fmt.Errorf("failed to initialize upload store: %w", err)
	}

	// Initialize authenticator
	logger.Info("Initializing authenticator")
	tracker := auth.NewAttemptTracker(cfg.Auth.MaxAttempts, cfg.Auth.AttemptWindow)
	authn := auth.NewAuthenticator(userStore, sessionStore, tracker, logger)

	// Initialize HTTP router
	logger.Info("Initializing HTTP router")
	router := server.NewRouter(authn, sessionStore, uploadStore, &cfg, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.Server.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited gracefully")
	return nil
}

// newUserStore constructs the configured credential store, running
// migrations first for the postgres driver.
func newUserStore(cfg *config.UserStoreConfig, logger *zap.Logger) (users.Store, error) {
	switch cfg.Driver {
	case "postgres":
		logger.Info("Running user store migrations")
		if err := schema.RunMigrations(cfg.DSN); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return userspostgres.NewPostgresStore(cfg.DSN, logger)
	default:
		return userssqlite.NewSQLiteStore(cfg.SQLitePath, logger)
	}
}

// newSessionStore constructs the configured session store.
func newSessionStore(cfg *config.SessionConfig, logger *zap.Logger) (session.Store, error) {
	switch cfg.StoreType {
	case "redis":
		return sessionredis.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix, cfg.Timeout, logger)
	default:
		return sessionmemory.NewMemoryStore(cfg.Timeout, logger), nil
	}
}

// runUserAdd creates a user record through the configured store
func runUserAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := zap.NewNop()
	store, err := newUserStore(&cfg.UserStore, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}
	defer store.Close()

	userType := "member"
	if len(args) == 3 {
		userType = args[2]
	}

	hash, err := users.HashPassword(args[1], cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u := &users.User{Username: args[0], PasswordHash: hash, UserType: userType}
	if err := store.Create(context.Background(), u); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user %s (id %d, type %s)\n", u.Username, u.ID, u.UserType)
	return nil
}

// runUserSetLocked toggles the locked flag on a user record
func runUserSetLocked(username string, locked bool) error {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := zap.NewNop()
	store, err := newUserStore(&cfg.UserStore, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}
	defer store.Close()

	if err := store.SetLocked(context.Background(), username, locked); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	state := "unlocked"
	if locked {
		state = "locked"
	}
	fmt.Printf("User %s is now %s\n", username, state)
	return nil
}

// validateConfig validates the configuration and displays settings
func validateConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("Validating configuration...")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("Listen Address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("User Store Driver: %s\n", cfg.UserStore.Driver)
	if cfg.UserStore.Driver == "postgres" {
		fmt.Printf("User Store DSN: %s\n", maskDSN(cfg.UserStore.DSN))
	} else {
		fmt.Printf("User Store Path: %s\n", cfg.UserStore.SQLitePath)
	}
	fmt.Printf("Session Store: %s\n", cfg.Session.StoreType)
	fmt.Printf("Session Timeout: %s\n", cfg.Session.Timeout)
	fmt.Printf("Upload Public Prefix: %s\n", cfg.Upload.PublicPrefix)
	fmt.Printf("Upload Storage Root: %s\n", cfg.Upload.StorageRoot)

	return nil
}

// maskDSN masks sensitive parts of the database DSN for display
func maskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if len(dsn) > 20 {
		return dsn[:10] + "***" + dsn[len(dsn)-7:]
	}
	return "***"
}

// initializeLogger creates a zap logger based on configuration
func initializeLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	var cfg zap.Config

	if logCfg.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	// Set log level
	switch logCfg.Level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}
