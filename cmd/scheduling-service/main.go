package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	predictorconfig "golang-stock-predictor/internal/predictor/config"
	predictorservice "golang-stock-predictor/internal/predictor/service"
	"golang-stock-predictor/internal/scheduler/config"
	delivery "golang-stock-predictor/internal/scheduler/delivery/http"
	"golang-stock-predictor/internal/scheduler/repository"
	"golang-stock-predictor/internal/scheduler/service"
	"golang-stock-predictor/pkg/logger"
	"golang-stock-predictor/pkg/postgres"
	"golang-stock-predictor/pkg/redis"
	"golang-stock-predictor/pkg/telegram"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the scheduling service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Scheduling Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis. An empty host runs without the cross-process lock.
	var redisClient *goredis.Client
	if cfg.Redis.Host != "" {
		client, err := redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		defer client.Close()
		redisClient = client.Client
	} else {
		appLogger.Warn("Redis not configured, cross-process run lock disabled")
	}

	// Initialize Telegram notifier. An empty bot token disables alerts.
	var notifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Load the predictor configuration and wire the pipeline it describes.
	predictorCfg, err := predictorconfig.Load(cfg.Pipeline.ConfigPath)
	if err != nil {
		appLogger.Fatal("Failed to load pipeline configuration", logger.ErrorField(err))
	}
	pipeline, err := predictorservice.BuildPipeline(ctx, predictorCfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to build pipeline", logger.ErrorField(err))
	}

	// Initialize repositories and services
	runRepo := repository.NewPipelineRunRepository(db.DB)
	schedulerSvc, err := service.NewSchedulerService(cfg, runRepo, pipeline, redisClient, notifier, appLogger, predictorCfg.Publisher.Branch)
	if err != nil {
		appLogger.Fatal("Failed to initialize scheduler", logger.ErrorField(err))
	}
	runSvc := service.NewRunService(runRepo, appLogger)

	// Start scheduler service
	go schedulerSvc.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	runHandler := delivery.NewRunHandler(schedulerSvc, runSvc, appLogger)
	apiV1 := e.Group("/api/v1")
	runsGroup := apiV1.Group("/runs")
	runHandler.RegisterRoutes(runsGroup)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "scheduling-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-scheduler.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing scheduling-service CLI: %s\n", err)
		os.Exit(1)
	}
}
