package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Server struct {
	HTTPAddr string
	GRPCAddr string
	// JWTSecret enables bearer authentication on /api routes when non-empty.
	JWTSecret string
}

type Storage struct {
	MySQLDSN  string
	RedisAddr string
}

type Kafka struct {
	// Brokers empty disables result publishing.
	Brokers []string
	Topic   string
}

type Allocation struct {
	PassLockTTL         time.Duration
	MovingAverageWindow int
}

type Config struct {
	Server     Server
	Storage    Storage
	Kafka      Kafka
	Allocation Allocation
	LogLevel   string
}

func Default() Config {
	return Config{
		Server: Server{
			HTTPAddr: ":8080",
			GRPCAddr: ":50051",
		},
		Storage: Storage{
			MySQLDSN:  "root:root@tcp(localhost:3306)/allocation?parseTime=true",
			RedisAddr: "localhost:6379",
		},
		Kafka: Kafka{
			Topic: "allocation-results",
		},
		Allocation: Allocation{
			PassLockTTL:         30 * time.Second,
			MovingAverageWindow: 3,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the .env file at envPath (if it exists) and
// environment variables.
// Priority: ENV > .env file > defaults
func Load(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Server.HTTPAddr = getEnv("HTTP_ADDR", cfg.Server.HTTPAddr)
	cfg.Server.GRPCAddr = getEnv("GRPC_ADDR", cfg.Server.GRPCAddr)
	cfg.Server.JWTSecret = getEnv("JWT_SECRET", cfg.Server.JWTSecret)
	cfg.Storage.MySQLDSN = getEnv("MYSQL_DSN", cfg.Storage.MySQLDSN)
	cfg.Storage.RedisAddr = getEnv("REDIS_ADDR", cfg.Storage.RedisAddr)
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = nil
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}

	if ttl := os.Getenv("PASS_LOCK_TTL_MS"); ttl != "" {
		if ms, err := strconv.Atoi(ttl); err == nil && ms > 0 {
			cfg.Allocation.PassLockTTL = time.Duration(ms) * time.Millisecond
		}
	}

	if window := os.Getenv("MOVING_AVERAGE_WINDOW"); window != "" {
		if n, err := strconv.Atoi(window); err == nil && n > 0 {
			cfg.Allocation.MovingAverageWindow = n
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
