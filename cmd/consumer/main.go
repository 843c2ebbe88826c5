package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/config"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/consumer"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/handlers"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/repository"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/routes"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/services"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/logger"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/metrics"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logr := logger.New(cfg.AppName, cfg.LogLevel, cfg.LogFormat)
	logr.Info("starting integration service", slog.String("app", cfg.AppName))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logr.Error("failed to connect database", slog.Any("error", err))
		os.Exit(1)
	}

	integrationStore, err := repository.NewIntegrationStore(db, cfg.IntegrationTable)
	if err != nil {
		logr.Error("failed to prepare integration store", slog.Any("error", err))
		os.Exit(1)
	}
	statusStore, err := repository.NewStatusStore(db, cfg.StatusTable)
	if err != nil {
		logr.Error("failed to prepare status store", slog.Any("error", err))
		os.Exit(1)
	}

	var suppressor services.TokenSuppressor
	if cfg.RedisURL != "" {
		redisRepo := repository.NewRedisRepository(redis.NewClient(redisOptions(cfg.RedisURL)), cfg.SuppressionTTL)
		defer redisRepo.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisRepo.Ping(pingCtx); err != nil {
			logr.Warn("redis unavailable, token suppression disabled", slog.Any("error", err))
		} else {
			suppressor = redisRepo
		}
		cancel()
	}

	metricsCollector := metrics.New()
	registry := handlers.Default(handlers.BuildOptions{Timeout: cfg.ProviderTimeout})
	for _, key := range registry.Keys() {
		logr.Debug("provider registered", slog.String("provider", key.ProviderID), slog.String("channel", string(key.Channel)))
	}
	factory := services.NewProviderFactory(integrationStore, registry, metricsCollector, logr)

	processor := services.NewPushProcessor(
		factory,
		services.NewStatusUpdater(statusStore, logr),
		suppressor,
		metricsCollector,
		logr,
		retry.Config{
			MaxAttempts:    cfg.RetryMaxAttempts,
			InitialBackoff: cfg.RetryInitialBackoff,
			MaxBackoff:     cfg.RetryMaxBackoff,
		},
	)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		logr.Error("failed to connect rabbitmq", slog.Any("error", err))
		os.Exit(1)
	}
	defer conn.Close()

	base := consumer.NewBaseConsumer(conn, consumer.Options{
		Queue:       cfg.PushQueue,
		DeadLetter:  cfg.DeadLetterQueue,
		Exchange:    cfg.Exchange,
		RoutingKey:  cfg.RoutingKey,
		Prefetch:    cfg.PrefetchCount,
		WorkerCount: cfg.WorkerCount,
	}, logr)
	pushConsumer := consumer.NewPushConsumer(base, processor, logr, cfg.MaxDeliveries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := startHTTPServer(cfg.HTTPPort, routes.NewRouter(metricsCollector, factory, integrationStore, time.Now(), logr), logr)

	if err := pushConsumer.Start(ctx); err != nil {
		logr.Error("push consumer exited", slog.Any("error", err))
	}

	shutdownHTTP(httpSrv, logr)
	logr.Info("integration service stopped")
}

// redisOptions accepts either a redis:// URL or a bare host:port.
func redisOptions(raw string) *redis.Options {
	if strings.Contains(raw, "://") {
		if opts, err := redis.ParseURL(raw); err == nil {
			return opts
		}
	}
	return &redis.Options{Addr: raw}
}

func startHTTPServer(port string, handler http.Handler, logr *slog.Logger) *http.Server {
	if port == "" {
		port = "8082"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Error("http server error", slog.Any("error", err))
		}
	}()
	return srv
}

func shutdownHTTP(srv *http.Server, logr *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("failed to shutdown http server", slog.Any("error", err))
	}
}
