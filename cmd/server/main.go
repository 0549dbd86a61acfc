package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/siges-solar/internal/adapter/cache"
	"github.com/seu-repo/siges-solar/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/siges-solar/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/siges-solar/internal/adapter/queue"
	"github.com/seu-repo/siges-solar/internal/adapter/storage/postgres"
	"github.com/seu-repo/siges-solar/internal/adapter/vault"
	"github.com/seu-repo/siges-solar/internal/observability/telemetry"
	"github.com/seu-repo/siges-solar/internal/ports"
	anomalysvc "github.com/seu-repo/siges-solar/internal/service/anomaly"
	"github.com/seu-repo/siges-solar/internal/service/detection"
	devicesvc "github.com/seu-repo/siges-solar/internal/service/device"
	"github.com/seu-repo/siges-solar/pkg/config"
)

const serviceName = "siges-solar"

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Starting SIGES-Solar",
		zap.String("service", serviceName),
		zap.String("environment", cfg.App.Environment),
	)

	// Secrets from Vault when configured, env/config otherwise
	if addr, token := os.Getenv("VAULT_ADDR"), os.Getenv("VAULT_TOKEN"); addr != "" && token != "" {
		sm, err := vault.NewSecretManager(addr, token)
		if err != nil {
			logger.Fatal("Failed to initialize Vault client", zap.Error(err))
		}
		if url, err := sm.GetDatabaseURL(); err == nil {
			cfg.Database.URL = url
		} else {
			logger.Warn("Vault database secret unavailable, using configured URL", zap.Error(err))
		}
		if secret, err := sm.GetJWTSecret(); err == nil {
			cfg.JWT.Secret = secret
		}
	}

	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, cfg.OpenTelemetry.JaegerEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	db, err := postgres.NewConnection(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Redis with in-memory fallback: a cache outage must not block reads
	var kv ports.Cache
	kv, err = cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to local cache", zap.Error(err))
		kv = cache.NewLocalCache(time.Minute, logger)
	}
	defer kv.Close()

	var mq queue.MessageQueue
	switch cfg.Messaging.Driver {
	case "nats":
		mq, err = queue.NewNATSQueue(cfg.Messaging.URL, logger)
	case "rabbitmq":
		mq, err = queue.NewRabbitMQQueue(cfg.Messaging.URL, logger)
	case "":
		logger.Info("Event publication disabled")
	default:
		logger.Fatal("Unknown messaging driver", zap.String("driver", cfg.Messaging.Driver))
	}
	if err != nil {
		logger.Warn("Message broker unavailable, events disabled", zap.Error(err))
		mq = nil
	}
	if mq != nil {
		defer mq.Close()
	}

	deviceRepo := postgres.NewDeviceRepository(db, logger)
	readingRepo := postgres.NewReadingRepository(db, logger)
	anomalyRepo := postgres.NewAnomalyRepository(db, logger)

	deviceService := devicesvc.NewService(deviceRepo, kv, logger)
	detectionService := detection.NewService(deviceRepo, readingRepo, anomalyRepo, mq, cfg.Detection.WindowDays, logger)
	anomalyService := anomalysvc.NewService(anomalyRepo, kv, cfg.Cache.StatsTTL, logger)

	var scheduler *detection.Scheduler
	if cfg.Detection.Enabled {
		scheduler = detection.NewScheduler(detectionService, cfg.Detection.Interval, logger)
		go scheduler.Start()
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORS.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, OPTIONS",
	}))
	app.Use(middleware.CircuitBreaker(logger))

	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		if err := sqlDB.Ping(); err != nil {
			return c.Status(503).SendString("Database not ready")
		}
		if err := kv.Ping(); err != nil {
			return c.Status(503).SendString("Cache not ready")
		}
		return c.SendString("Ready")
	})

	if cfg.Prometheus.Enabled {
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
			handler(c.Context())
			return nil
		})
	}

	v1 := app.Group("/api/v1")
	protected := v1.Group("", middleware.AuthRequired(cfg.JWT.Secret))

	deviceHandler := handlers.NewDeviceHandler(deviceService, logger)
	protected.Get("/devices", deviceHandler.List)
	protected.Get("/devices/:id", deviceHandler.Get)
	protected.Patch("/devices/:id/status", deviceHandler.UpdateStatus)

	detectionHandler := handlers.NewDetectionHandler(detectionService, logger)
	protected.Post("/detection/run", detectionHandler.Run)
	protected.Post("/devices/:id/detect", detectionHandler.DetectForDevice)

	anomalyHandler := handlers.NewAnomalyHandler(anomalyService, logger)
	protected.Get("/anomalies", anomalyHandler.List)
	protected.Get("/anomalies/stats", anomalyHandler.Stats)
	protected.Get("/anomalies/:id", anomalyHandler.Get)
	protected.Post("/anomalies/:id/acknowledge", anomalyHandler.Acknowledge)
	protected.Post("/anomalies/:id/resolve", anomalyHandler.Resolve)
	protected.Post("/anomalies/:id/false-positive", anomalyHandler.MarkFalsePositive)
	protected.Get("/devices/:id/anomalies", anomalyHandler.ListForDevice)

	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}
