package main

import (
	"context"
	"database/sql"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/lot-allocation/internal/adapter/handler"
	"github.com/rl1809/lot-allocation/internal/adapter/messaging"
	"github.com/rl1809/lot-allocation/internal/adapter/storage"
	"github.com/rl1809/lot-allocation/internal/config"
	"github.com/rl1809/lot-allocation/internal/core/allocation"
	"github.com/rl1809/lot-allocation/internal/core/service"
	"github.com/rl1809/lot-allocation/internal/logging"
	"github.com/rl1809/lot-allocation/internal/port"
)

func main() {
	envPath := flag.String("env", "", "path to .env file")
	flag.Parse()

	cfg := config.Load(*envPath)

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.Storage.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.RedisAddr,
		PoolSize: 20,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")
	redisAdapter := storage.NewRedisAdapter(rdb)

	// Result publishing is optional
	var publisher port.EventPublisher = messaging.NopPublisher{}
	var kafkaPublisher *messaging.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err = messaging.NewKafkaPublisher(messaging.KafkaPublisherConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			logger.Fatal("failed to create kafka publisher", zap.Error(err))
		}
		publisher = kafkaPublisher
		logger.Info("publishing allocation results", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// Initialize services
	orderService := service.NewOrderService(mysqlAdapter, redisAdapter, logger)
	inventoryService := service.NewInventoryService(mysqlAdapter, redisAdapter, logger)
	allocationService := service.NewAllocationService(
		mysqlAdapter, redisAdapter, publisher, logger,
		cfg.Allocation.PassLockTTL,
		allocation.WithMovingAverageWindow(cfg.Allocation.MovingAverageWindow),
	)

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	handler.NewGRPCHandler(allocationService, logger).Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	var auth func(http.Handler) http.Handler
	if cfg.Server.JWTSecret != "" {
		auth = handler.BearerAuth([]byte(cfg.Server.JWTSecret))
	} else {
		logger.Warn("JWT_SECRET not set, API authentication disabled")
	}
	httpHandler := handler.NewHTTPHandler(orderService, inventoryService, allocationService, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: httpHandler.Router(auth),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("failed to close kafka publisher", zap.Error(err))
		}
	}

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}
