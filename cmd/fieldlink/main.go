// Fieldlink Core - Telemetry Protocol Gateway
//
// This is the main entry point for the Fieldlink Core application.
// Fieldlink fronts heterogeneous field devices behind a uniform adapter
// contract:
//   - One registry describing every supported wire protocol
//   - Two-phase validation of sensor connection configurations
//   - Connection testing with hard timeouts and guaranteed cleanup
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/fieldlink-core/migrations"

	"github.com/nerrad567/fieldlink-core/internal/adapter/modbustcp"
	"github.com/nerrad567/fieldlink-core/internal/adapter/mqttsensor"
	"github.com/nerrad567/fieldlink-core/internal/adapter/snmpudp"
	"github.com/nerrad567/fieldlink-core/internal/api"
	"github.com/nerrad567/fieldlink-core/internal/infrastructure/config"
	"github.com/nerrad567/fieldlink-core/internal/infrastructure/database"
	"github.com/nerrad567/fieldlink-core/internal/infrastructure/logging"
	"github.com/nerrad567/fieldlink-core/internal/registry"
	"github.com/nerrad567/fieldlink-core/internal/tester"
	"github.com/nerrad567/fieldlink-core/internal/tsdb"
	"github.com/nerrad567/fieldlink-core/internal/validation"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// syncTimeout bounds the startup catalogue sync; it is best-effort and
// must not stall boot on a slow disk.
const syncTimeout = 30 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Fieldlink Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Build the protocol registry. Registration order is the order
	// protocols appear in unfiltered listings.
	reg, err := registry.New(
		modbustcp.New(),
		mqttsensor.New(),
		snmpudp.New(),
	)
	if err != nil {
		return fmt.Errorf("building protocol registry: %w", err)
	}
	reg.SetLogger(log)
	reg.SetCatalog(registry.NewSQLiteCatalogRepository(db))
	log.Info("protocol registry initialised", "protocols", reg.Count())

	// Sync the durable catalogue. Best-effort: availability never
	// depends on the store.
	syncCtx, syncCancel := context.WithTimeout(ctx, syncTimeout)
	synced := reg.SyncToStore(syncCtx)
	syncCancel()
	log.Info("protocol catalogue synced", "synced", synced, "total", reg.Count())

	// Configuration validator with compiled-schema cache
	validator := validation.New(reg)

	// Connection tester
	conntest := tester.New(reg, validator)
	conntest.SetLogger(log)

	// Connect to InfluxDB (optional)
	if cfg.TSDB.Enabled {
		tsdbClient, tsdbErr := tsdb.Connect(cfg.TSDB)
		if tsdbErr != nil {
			if errors.Is(tsdbErr, tsdb.ErrDisabled) {
				log.Info("telemetry store disabled")
			} else {
				return fmt.Errorf("connecting to telemetry store: %w", tsdbErr)
			}
		} else {
			defer func() {
				log.Info("closing telemetry store connection")
				if closeErr := tsdbClient.Close(); closeErr != nil {
					log.Error("error closing telemetry store", "error", closeErr)
				}
			}()
			tsdbClient.SetOnError(func(err error) {
				log.Error("telemetry write error", "error", err)
			})
			conntest.SetSink(tsdbClient)
			log.Info("telemetry store connected",
				"url", cfg.TSDB.URL,
				"org", cfg.TSDB.Org,
				"bucket", cfg.TSDB.Bucket,
			)
		}
	} else {
		log.Info("telemetry store disabled")
	}

	// Start HTTP API
	server, err := api.New(api.Deps{
		Config:    cfg.API,
		Tester:    cfg.Tester,
		Logger:    log,
		Registry:  reg,
		Validator: validator,
		Conntest:  conntest,
		Version:   version,
		Store:     db,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Telemetry store (if enabled)
	// 3. Database

	log.Info("Fieldlink Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FIELDLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FIELDLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
