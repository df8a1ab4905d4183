package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Memory.Enabled)
	assert.False(t, cfg.Pebble.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "INFO", cfg.Logger.Level)
	assert.Equal(t, "AA(10|0[1-9])", cfg.Validation.InstrumentUniverse)
	assert.Same(t, cfg, Get())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MEMORY_MAX_ORDERS", "500")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "DEBUG", cfg.Logger.Level)
	assert.Equal(t, 500, cfg.Memory.MaxOrders)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("MEMORY_MAX_ORDERS", "lots")
	t.Setenv("PEBBLE_ENABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100000, cfg.Memory.MaxOrders)
	assert.False(t, cfg.Pebble.Enabled)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"bad log level":     {"LOG_LEVEL": "TRACE"},
		"no stores":         {"MEMORY_ENABLED": "false"},
		"limit order":       {"DEFAULT_EXECUTION_LIMIT": "50", "MAX_EXECUTION_LIMIT": "10"},
		"zero limit":        {"DEFAULT_EXECUTION_LIMIT": "0"},
		"negative capacity": {"MEMORY_MAX_ORDERS": "-1"},
		"empty kafka topic": {"KAFKA_ENABLED": "true", "KAFKA_TOPIC": " "},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
