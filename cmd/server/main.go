/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the points ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, LEDGER_CONFIG file, environment)
  2. Apply command-line flags
  3. Build the logger
  4. Open the configured document store
  5. Wire collections, engine, query service and handler
  6. Start the ranking reconciler
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -store   file | sqlite | redis | memory (overrides LEDGER_STORE)
  -data    Data directory of the file store (overrides LEDGER_DATA_DIR)
  -db      SQLite database path (overrides LEDGER_SQLITE_PATH)
           Use ":memory:" for an in-memory database
  -static  Front-end directory (overrides LEDGER_STATIC_DIR)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the ranking reconciler
  4. Close the store
  5. Exit

EXAMPLES:
  # Flat JSON files in ./data (default)
  ./server

  # SQLite
  ./server -store=sqlite -db="./data/ledger.db"

  # Redis
  REDIS_ADDR=localhost:6379 ./server -store=redis

ENVIRONMENT:
  See config/config.go for the full list.

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
  - ledger/engine.go: Ledger engine
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/warp/points-ledger/api"
	"github.com/warp/points-ledger/config"
	"github.com/warp/points-ledger/ledger"
	memstore "github.com/warp/points-ledger/ledger/store"
	"github.com/warp/points-ledger/store/jsonfile"
	"github.com/warp/points-ledger/store/redis"
	"github.com/warp/points-ledger/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags
	port := flag.Int("port", cfg.Server.Port, "HTTP server port")
	storeKind := flag.String("store", cfg.Storage.Kind, "Document store: file, sqlite, redis or memory")
	dataDir := flag.String("data", cfg.Storage.DataDir, "Data directory of the file store")
	dbPath := flag.String("db", cfg.Storage.SQLitePath, "SQLite database path")
	staticDir := flag.String("static", cfg.Server.StaticDir, "Front-end directory")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Storage.Kind = *storeKind
	cfg.Storage.DataDir = *dataDir
	cfg.Storage.SQLitePath = *dbPath
	cfg.Server.StaticDir = *staticDir
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Initialize store
	store, closer, err := openStore(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize store")
	}
	defer closer.Close()

	strategy, err := ledger.ParseRankingStrategy(cfg.Ledger.RankingStrategy)
	if err != nil {
		logger.WithError(err).Fatal("Invalid ranking strategy")
	}

	collections := ledger.NewCollections(store, logger)
	engine := ledger.NewEngine(collections, strategy, logger)
	query := ledger.NewQueryService(collections, cfg.Ledger.TodayStats)

	// Initialize handler
	handler := api.NewHandler(engine, query, logger)
	handler.ScenariosEnabled = cfg.Server.Scenarios

	reconciler := api.NewRankingReconciler(engine, logger)
	reconciler.CheckInterval = cfg.Ledger.ReconcileInterval
	reconciler.Enabled = cfg.Ledger.ReconcileInterval > 0
	reconciler.Start()

	// Create router
	router := api.NewRouter(handler, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		StaticDir:      cfg.Server.StaticDir,
		Log:            logger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithFields(log.Fields{
			"port":        cfg.Server.Port,
			"store":       cfg.Storage.Kind,
			"strategy":    strategy,
			"environment": cfg.Environment,
		}).Infof("Server starting, dashboard at http://localhost:%d/dashboard.html", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	reconciler.Stop()

	logger.Info("Server stopped")
}

// openStore opens the configured backend. The returned closer releases it.
func openStore(cfg *config.Config) (ledger.DocumentStore, io.Closer, error) {
	switch cfg.Storage.Kind {
	case config.StoreFile:
		s, err := jsonfile.New(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, io.NopCloser(nil), nil

	case config.StoreSQLite:
		s, err := sqlite.New(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case config.StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r := cfg.Storage.Redis
		s, err := redis.New(ctx, r.Addr, r.Password, r.DB, r.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case config.StoreMemory:
		return memstore.NewMemory(), io.NopCloser(nil), nil
	}
	return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Storage.Kind)
}
