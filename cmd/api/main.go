package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retail-platform/sales-service/internal/api/handlers"
	"github.com/retail-platform/sales-service/internal/application"
	"github.com/retail-platform/sales-service/internal/domain"
	"github.com/retail-platform/sales-service/internal/infrastructure/events"
	mongoRepo "github.com/retail-platform/sales-service/internal/infrastructure/mongodb"
	"github.com/retail-platform/sales-service/pkg/kafka"
	"github.com/retail-platform/sales-service/pkg/logging"
	"github.com/retail-platform/sales-service/pkg/metrics"
	"github.com/retail-platform/sales-service/pkg/middleware"
	"github.com/retail-platform/sales-service/pkg/mongodb"
	"github.com/retail-platform/sales-service/pkg/resilience"
)

const serviceName = "sales-service"

var startHTTPServer = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), signalCh); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, signalCh <-chan os.Signal) error {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logConfig.Environment = getEnv("ENVIRONMENT", "development")
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting sales-service API")

	config := loadConfig()

	// Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// MongoDB. The database may come up after us, so connection
	// attempts are retried with backoff.
	var mongoClient *mongodb.Client
	retryConfig := resilience.DefaultRetryConfig()
	retryConfig.RetryableErrors = func(error) bool { return true }
	err := resilience.Retry(ctx, retryConfig, func() error {
		var connErr error
		mongoClient, connErr = mongodb.NewClient(ctx, config.MongoDB)
		return connErr
	})
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Kafka producer. Topic creation is best-effort: the topic may
	// already exist or be managed externally.
	if err := kafka.EnsureTopics(config.Kafka.Brokers, kafka.DefaultTopicConfigs()); err != nil {
		logger.WithError(err).Warn("Failed to ensure Kafka topics")
	}
	producer := kafka.NewProducer(config.Kafka)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Wiring
	saleRepo := mongoRepo.NewSaleRepository(mongoClient.Database(), logger, m)
	publisher := events.NewKafkaPublisher(producer, logger, m)
	saleService := application.NewSaleService(saleRepo, publisher, domain.DefaultDiscountPolicy(), logger)

	business := middleware.NewBusinessMetrics(m)
	saleHandler := handlers.NewSaleHandler(saleService, logger, business)

	// Router
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)
	router.Use(middleware.MetricsMiddleware(m))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	saleHandler.RegisterRoutes(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	<-signalCh
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
}

func loadConfig() *Config {
	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", "mongodb://localhost:27017")
	mongoConfig.Database = getEnv("MONGODB_DATABASE", "sales")

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		MongoDB:    mongoConfig,
		Kafka:      kafkaConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
