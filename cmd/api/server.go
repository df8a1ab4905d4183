package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PxPatel/crossing-engine/config"
	"github.com/PxPatel/crossing-engine/internal/api/handlers"
	"github.com/PxPatel/crossing-engine/internal/api/logger"
	"github.com/PxPatel/crossing-engine/internal/api/routes"
	"github.com/PxPatel/crossing-engine/internal/events/kafka"
	"github.com/PxPatel/crossing-engine/internal/identity"
	"github.com/PxPatel/crossing-engine/internal/matching"
	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/storage/file"
	"github.com/PxPatel/crossing-engine/internal/storage/memory"
	"github.com/PxPatel/crossing-engine/internal/storage/pebble"
	"github.com/PxPatel/crossing-engine/internal/storage/postgres"
	"github.com/PxPatel/crossing-engine/internal/storage/redis"
	"github.com/PxPatel/crossing-engine/internal/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crossing engine: %v\n", err)
		os.Exit(1)
	}
}

// run owns every resource of the process so deferred closes always happen
func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Initialize logger with config
	logger.SetMinLevel(logger.ParseLevel(cfg.Logger.Level))
	defer logger.Sync()

	logger.Info("Starting Crossing Engine API Server", map[string]interface{}{
		"version": "1.0.0",
	})

	validator, err := validation.NewValidator(cfg.Validation.InstrumentUniverse)
	if err != nil {
		logger.Error("Invalid validation rules", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	// Build storage layers based on configuration
	orderStore, executionStore, err := buildStorageLayers(cfg)
	if err != nil {
		logger.Error("Failed to build storage layers", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	defer closeStore("order", orderStore)
	defer closeStore("execution", executionStore)

	ids := identity.NewProvider(identity.RealClock{})

	// Create matching engine with storage
	engine := matching.NewEngine(orderStore,
		matching.WithExecutionStore(executionStore),
		matching.WithIdentity(ids),
	)

	// Create engine holder for dependency injection
	engineHolder := handlers.NewEngineHolder(engine, ids, validator, handlers.Limits{
		DefaultExecutions: cfg.API.DefaultExecutionLimit,
		MaxExecutions:     cfg.API.MaxExecutionLimit,
	})

	// Setup routes with middleware
	handler := routes.SetupRoutes(engineHolder, cfg.Server.AllowedOrigins)

	// Create HTTP server with config
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", map[string]interface{}{
			"port":    cfg.Server.Port,
			"address": fmt.Sprintf("http://localhost:%s", cfg.Server.Port),
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("Server failed to start", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	case <-quit:
	}

	logger.Info("Server shutting down...", nil)

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	logger.Info("Server exited successfully", nil)
	return nil
}

type closer interface {
	Close() error
}

func closeStore(name string, store closer) {
	if err := store.Close(); err != nil {
		logger.Error("Failed to close store", map[string]interface{}{
			"store": name,
			"error": err.Error(),
		})
	}
}

// buildStorageLayers constructs the storage layers based on configuration.
// Order layers are memory first, then Pebble, Redis and Postgres. The first
// layer serves reads; every layer commits each batch. On error every layer
// opened so far is closed again.
func buildStorageLayers(cfg *config.Config) (storage.OrderStore, storage.ExecutionStore, error) {
	var orderStores []storage.OrderStore
	var executionStores []storage.ExecutionStore

	// L1: In-memory (fastest) - if enabled
	var memOrderStore *memory.InMemoryOrderStore
	if cfg.Memory.Enabled {
		memOrderStore = memory.NewInMemoryOrderStore(cfg.Memory.MaxOrders)
		orderStores = append(orderStores, memOrderStore)
		executionStores = append(executionStores, memory.NewInMemoryExecutionStore(cfg.Memory.MaxExecutions))

		logger.Info("In-memory storage layer enabled", map[string]interface{}{
			"max_orders":     cfg.Memory.MaxOrders,
			"max_executions": cfg.Memory.MaxExecutions,
		})
	}

	// L2: Pebble (embedded durable store) - if enabled
	if cfg.Pebble.Enabled {
		pebbleStore, err := pebble.NewPebbleOrderStore(cfg.Pebble.Path)
		if err != nil {
			logger.Warn("Failed to open Pebble store, continuing without it", map[string]interface{}{
				"path":  cfg.Pebble.Path,
				"error": err.Error(),
			})
		} else {
			logger.Info("Pebble store opened", map[string]interface{}{
				"path": cfg.Pebble.Path,
			})
			orderStores = append(orderStores, pebbleStore)
		}
	}

	// L3: Redis (distributed cache) - if enabled
	if cfg.Redis.Enabled {
		redisCfg := redis.RedisConfig{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			MaxRetries:    cfg.Redis.MaxRetries,
			PoolSize:      cfg.Redis.PoolSize,
			MinIdleConns:  cfg.Redis.MinIdleConns,
			TLSEnabled:    cfg.Redis.TLSEnabled,
			MaxExecutions: cfg.Redis.MaxExecutions,
		}

		redisOrderStore, err := redis.NewRedisOrderStore(redisCfg)
		if err != nil {
			logger.Warn("Failed to connect to Redis, continuing without distributed cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			logger.Info("Redis cache connected successfully", map[string]interface{}{
				"host": cfg.Redis.Host,
				"port": cfg.Redis.Port,
			})
			orderStores = append(orderStores, redisOrderStore)

			if redisExecutionStore, err := redis.NewRedisExecutionStore(redisCfg); err == nil {
				executionStores = append(executionStores, redisExecutionStore)
			}
		}
	}

	// L4: PostgreSQL (persistent storage) - if enabled
	if cfg.Database.Enabled {
		pgCfg := postgres.PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Name,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			MaxConns:        cfg.Database.MaxConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			SSLMode:         cfg.Database.SSLMode,
		}

		pgOrderStore, err := postgres.NewPostgresOrderStore(pgCfg)
		if err != nil {
			logger.Warn("Failed to connect to PostgreSQL, continuing without persistent storage", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			logger.Info("PostgreSQL connected successfully", map[string]interface{}{
				"host":     cfg.Database.Host,
				"database": cfg.Database.Name,
			})
			orderStores = append(orderStores, pgOrderStore)

			if pgExecutionStore, err := postgres.NewPostgresExecutionStore(pgCfg); err == nil {
				executionStores = append(executionStores, pgExecutionStore)
			}
		}
	}

	// Execution audit log
	if cfg.Engine.ExecutionLogPath != "" {
		if executionLog, err := file.NewExecutionLog(cfg.Engine.ExecutionLogPath); err == nil {
			executionStores = append(executionStores, executionLog)
			logger.Info("Execution file log enabled", map[string]interface{}{
				"path": cfg.Engine.ExecutionLogPath,
			})
		} else {
			logger.Warn("Failed to open execution log", map[string]interface{}{
				"path":  cfg.Engine.ExecutionLogPath,
				"error": err.Error(),
			})
		}
	}

	// Execution events
	if cfg.Kafka.Enabled {
		executionStores = append(executionStores, kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		logger.Info("Kafka execution publisher enabled", map[string]interface{}{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		})
	}

	if len(orderStores) == 0 {
		logger.Warn("No configured order store is reachable, falling back to memory", nil)
		memOrderStore = memory.NewInMemoryOrderStore(cfg.Memory.MaxOrders)
		orderStores = append(orderStores, memOrderStore)
	}

	// Warm the memory layer from the first durable layer
	if cfg.Engine.WarmStart && memOrderStore != nil && len(orderStores) > 1 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		loaded, err := storage.Hydrate(ctx, orderStores[1], memOrderStore)
		cancel()
		if err != nil {
			for _, store := range orderStores {
				closeStore("order", store)
			}
			for _, store := range executionStores {
				closeStore("execution", store)
			}
			return nil, nil, fmt.Errorf("warm in-memory order store: %w", err)
		}
		logger.Info("In-memory order store warmed", map[string]interface{}{
			"orders": loaded,
		})
	}

	// Build composite stores
	var orderStore storage.OrderStore
	if len(orderStores) == 1 {
		orderStore = orderStores[0]
	} else {
		orderStore = storage.NewCompositeOrderStore(orderStores...)
	}

	var executionStore storage.ExecutionStore
	if len(executionStores) == 1 {
		executionStore = executionStores[0]
	} else {
		executionStore = storage.NewCompositeExecutionStore(executionStores...)
	}

	logger.Info("Storage layers initialized", map[string]interface{}{
		"order_layers":     len(orderStores),
		"execution_layers": len(executionStores),
	})

	return orderStore, executionStore, nil
}
