/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the timesheet engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (YAML file, then environment)
  3. Initialize logger, SQLite store and attachment directory
  4. Create the timesheet service, API handler and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config      Path to YAML config (default: config/local.yaml; env only if missing)
  -mint-token  Register a user and print a bearer token, then exit.
               Format: id:username:ROLE[,ROLE...]

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with the sample config
  ./server -config=config/local.yaml

  # Run purely from environment
  JWT_SECRET=s3cret DB_PATH=:memory: ./server -config=""

  # Create an admin and get a token
  ./server -mint-token="u-1:alice:ADMIN"

SEE ALSO:
  - config/config.go: Configuration fields
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/attachments"
	"github.com/warp/timesheet-engine/config"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/holidays"
	"github.com/warp/timesheet-engine/logging"
	"github.com/warp/timesheet-engine/store/sqlite"
	"github.com/warp/timesheet-engine/timesheet"
)

func main() {
	// Flags
	configPath := flag.String("config", "config/local.yaml", "Path to YAML config")
	mint := flag.String("mint-token", "", "Register id:username:ROLES and print a token")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret (JWT_SECRET) is required")
	}

	rules, err := cfg.Rules()
	if err != nil {
		log.Fatal("invalid policy", zap.Error(err))
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatal("failed to initialize database", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer store.Close()

	auth := api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	if *mint != "" {
		token, err := mintToken(context.Background(), store, auth, *mint)
		if err != nil {
			log.Fatal("failed to mint token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	files, err := attachments.NewLocal(cfg.Storage.UploadDir)
	if err != nil {
		log.Fatal("failed to initialize upload directory", zap.String("dir", cfg.Storage.UploadDir), zap.Error(err))
	}

	calendar := holidays.NewCalendar(store, log.Named("holidays"))

	svc := &timesheet.Service{
		Store:        store,
		Users:        store,
		Holidays:     calendar,
		HolidayTypes: store,
		Attachments:  files,
		Audit:        store,
		Seeder:       calendar,
		Rules:        rules,
		Aggregator:   timesheet.Aggregator{OvertimeThreshold: rules.OvertimeThreshold},
		Lifecycle:    timesheet.NewLifecycle(),
		Timeout:      cfg.Upstream.Timeout,
		Logger:       log.Named("timesheet"),
	}

	// Initialize handler
	handler := api.NewHandler(svc, store, log.Named("api"))

	// Create router
	router := api.NewRouter(handler, auth, cfg.Server.AllowedOrigins)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// mintToken registers the user described by arg ("id:username:ROLE,ROLE")
// and returns a signed token for it.
func mintToken(ctx context.Context, store *sqlite.Store, auth *api.Authenticator, arg string) (string, error) {
	parts := strings.SplitN(arg, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("expected id:username:ROLES, got %q", arg)
	}
	roles := timesheet.ParseRoles(strings.Split(parts[2], ","))
	if len(roles) == 0 {
		return "", fmt.Errorf("no recognized roles in %q", parts[2])
	}
	user := timesheet.User{ID: generic.UserID(parts[0]), Username: parts[1], Roles: roles}
	if err := store.SaveUser(ctx, user); err != nil {
		return "", err
	}
	return auth.GenerateToken(user.ID, user.Username, roles)
}
