package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_ADDR", "GRPC_ADDR", "JWT_SECRET", "MYSQL_DSN", "REDIS_ADDR",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "PASS_LOCK_TTL_MS", "MOVING_AVERAGE_WINDOW", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PASS_LOCK_TTL_MS", "1500")
	t.Setenv("MOVING_AVERAGE_WINDOW", "5")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 1500*time.Millisecond, cfg.Allocation.PassLockTTL)
	assert.Equal(t, 5, cfg.Allocation.MovingAverageWindow)
	assert.Equal(t, "s3cret", cfg.Server.JWTSecret)
}

func TestLoad_InvalidNumbersKeepDefaults(t *testing.T) {
	t.Setenv("PASS_LOCK_TTL_MS", "soon")
	t.Setenv("MOVING_AVERAGE_WINDOW", "0")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, 30*time.Second, cfg.Allocation.PassLockTTL)
	assert.Equal(t, 3, cfg.Allocation.MovingAverageWindow)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nKAFKA_TOPIC=results-test\n"), 0o644))
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("KAFKA_TOPIC")
	t.Cleanup(func() {
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("KAFKA_TOPIC")
	})

	cfg := Load(path)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "results-test", cfg.Kafka.Topic)
}
