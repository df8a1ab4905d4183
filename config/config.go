package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Engine     EngineConfig
	API        APIConfig
	Logger     LoggerConfig
	Memory     MemoryConfig
	Pebble     PebbleConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Validation ValidationConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// EngineConfig holds matching engine configuration
type EngineConfig struct {
	ExecutionLogPath string // empty disables the file log
	WarmStart        bool
}

// APIConfig holds API-specific configuration
type APIConfig struct {
	DefaultExecutionLimit int
	MaxExecutionLimit     int
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level string // DEBUG, INFO, WARN, ERROR
}

// MemoryConfig holds in-memory storage configuration
type MemoryConfig struct {
	Enabled       bool
	MaxOrders     int
	MaxExecutions int
}

// PebbleConfig holds embedded store configuration
type PebbleConfig struct {
	Enabled bool
	Path    string
}

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string
}

// RedisConfig holds Redis cache configuration
type RedisConfig struct {
	Enabled       bool
	Host          string
	Port          int
	Password      string
	DB            int
	MaxRetries    int
	PoolSize      int
	MinIdleConns  int
	TLSEnabled    bool
	MaxExecutions int
}

// KafkaConfig holds execution event publishing configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// ValidationConfig holds order validation rules
type ValidationConfig struct {
	InstrumentUniverse string // regular expression, anchored when compiled
}

var instance *Config

// Load loads configuration from .env file (if exists) and environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Engine: EngineConfig{
			ExecutionLogPath: getEnv("EXECUTION_LOG_PATH", "executions.log"),
			WarmStart:        getEnvBool("WARM_START_ENABLED", true),
		},
		API: APIConfig{
			DefaultExecutionLimit: getEnvInt("DEFAULT_EXECUTION_LIMIT", 100),
			MaxExecutionLimit:     getEnvInt("MAX_EXECUTION_LIMIT", 1000),
		},
		Logger: LoggerConfig{
			Level: strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		},
		Memory: MemoryConfig{
			Enabled:       getEnvBool("MEMORY_ENABLED", true),
			MaxOrders:     getEnvInt("MEMORY_MAX_ORDERS", 100000),
			MaxExecutions: getEnvInt("MEMORY_MAX_EXECUTIONS", 1000),
		},
		Pebble: PebbleConfig{
			Enabled: getEnvBool("PEBBLE_ENABLED", false),
			Path:    getEnv("PEBBLE_PATH", "data/orders"),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvBool("DATABASE_ENABLED", false),
			Host:            getEnv("DATABASE_HOST", "localhost"),
			Port:            getEnvInt("DATABASE_PORT", 5432),
			Name:            getEnv("DATABASE_NAME", "crossing_engine"),
			User:            getEnv("DATABASE_USER", "postgres"),
			Password:        getEnv("DATABASE_PASSWORD", ""),
			MaxConns:        getEnvInt("DATABASE_MAX_CONNECTIONS", 20),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			SSLMode:         getEnv("DATABASE_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:       getEnvBool("REDIS_ENABLED", false),
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnvInt("REDIS_PORT", 6379),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvInt("REDIS_DB", 0),
			MaxRetries:    getEnvInt("REDIS_MAX_RETRIES", 3),
			PoolSize:      getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:  getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			TLSEnabled:    getEnvBool("REDIS_TLS_ENABLED", false),
			MaxExecutions: getEnvInt("REDIS_MAX_EXECUTIONS", 10000),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "executions"),
		},
		Validation: ValidationConfig{
			InstrumentUniverse: getEnv("INSTRUMENT_UNIVERSE", "AA(10|0[1-9])"),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	instance = cfg
	return cfg, nil
}

// Get returns the singleton config instance
func Get() *Config {
	if instance == nil {
		panic("config not loaded - call config.Load() first")
	}
	return instance
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	// Validate API config
	if c.API.DefaultExecutionLimit < 1 {
		return fmt.Errorf("DEFAULT_EXECUTION_LIMIT must be > 0")
	}
	if c.API.MaxExecutionLimit < c.API.DefaultExecutionLimit {
		return fmt.Errorf("MAX_EXECUTION_LIMIT must be >= DEFAULT_EXECUTION_LIMIT")
	}

	// Validate storage config
	if !c.Memory.Enabled && !c.Pebble.Enabled && !c.Redis.Enabled && !c.Database.Enabled {
		return fmt.Errorf("at least one order store must be enabled")
	}
	if c.Memory.MaxOrders < 0 || c.Memory.MaxExecutions < 0 {
		return fmt.Errorf("MEMORY_MAX_ORDERS and MEMORY_MAX_EXECUTIONS must be >= 0")
	}
	if c.Pebble.Enabled && c.Pebble.Path == "" {
		return fmt.Errorf("PEBBLE_PATH cannot be empty when PEBBLE_ENABLED")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || strings.TrimSpace(c.Kafka.Topic) == "") {
		return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required when KAFKA_ENABLED")
	}

	// Validate logger config
	validLevels := map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: DEBUG, INFO, WARN, ERROR")
	}

	return nil
}

// Helper functions to read environment variables with defaults

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
