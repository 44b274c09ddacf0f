/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the bookkeeping engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment, build the logger
  2. Open the snapshot store (SQLite, or memory when DB_PATH is empty)
  3. Create the engine and restore the stored books
  4. Optionally seed the demo scenario into empty books
  5. Configure HTTP router
  6. Start server with graceful shutdown

ENVIRONMENT:
  APP_ENV                development | production
  APP_ADDR               Listen address (default: :8080)
  APP_*_TIMEOUT          Read, write, request and shutdown timeouts
  DB_PATH                SQLite database path (default: bookkeeping.db)
                         ":memory:" for a throwaway database,
                         "" to run without any database
  LOG_FORMAT, LOG_LEVEL  json | pretty, debug | info | warn | error
  RATE_LIMIT_PER_MINUTE  Per-IP request budget
  CORS_ORIGINS           Comma-separated allowed origins
  LOAD_DEMO              Seed the full-month scenario into empty books

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (APP_SHUTDOWN_TIMEOUT)
  3. Flush the books one last time
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  DB_PATH=./data/books.db ./server

  # Run with in-memory database and demo data
  DB_PATH=":memory:" LOAD_DEMO=true ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/warp/bookkeeping-engine/api"
	"github.com/warp/bookkeeping-engine/config"
	"github.com/warp/bookkeeping-engine/ledger"
	"github.com/warp/bookkeeping-engine/ledger/store"
	"github.com/warp/bookkeeping-engine/store/sqlite"
	"go.uber.org/zap"
)

const demoScenario = "full-month"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize store
	var snapshots ledger.SnapshotStore
	if cfg.DBPath == "" {
		logger.Warn("DB_PATH is empty, books are kept in memory only")
		snapshots = store.NewMemory()
	} else {
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		snapshots = db
	}

	// Initialize engine and handler
	engine := ledger.NewEngine(ledger.WithLogger(logger.Named("ledger")))
	handler := api.NewHandler(engine, snapshots, logger.Named("api"))

	ctx := context.Background()
	restored, err := handler.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore books: %w", err)
	}
	logger.Info("books ready",
		zap.Bool("restored", restored),
		zap.Int("transactions", len(engine.Transactions())))

	if cfg.LoadDemo && !restored {
		if err := handler.LoadDemo(ctx, demoScenario); err != nil {
			return fmt.Errorf("load demo: %w", err)
		}
	}

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RequestTimeout:     cfg.AppRequestTimeout,
		Production:         cfg.IsProduction(),
	})

	// Create server
	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		IdleTimeout:  2 * cfg.AppRequestTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.AppAddr), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := handler.Flush(shutdownCtx); err != nil {
		logger.Error("final flush failed", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}
