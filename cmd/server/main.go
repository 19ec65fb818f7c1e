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

	"cropr/internal/api"
	"cropr/internal/config"
	"cropr/internal/repository"
	"cropr/internal/service"
	"cropr/internal/storage"
	"cropr/pkg/logger"

	"go.uber.org/zap"
)

const (
	// Application information
	AppName    = "cropr"
	AppVersion = "0.1.0"

	// Graceful shutdown timeout
	ShutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application failed to start: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Logger first so everything below can use it
	if err := logger.Init(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Starting "+AppName,
		zap.String("version", AppVersion),
		zap.String("port", cfg.Server.Port),
		zap.Bool("development", cfg.IsDevelopment()))

	repo, err := repository.NewImageRepository(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close repository", zap.Error(err))
		}
	}()

	source, err := storage.NewSourceStorage(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize source storage: %w", err)
	}

	renderCache, err := storage.NewRenderCache(&cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to initialize render cache: %w", err)
	}

	processor := service.NewProcessorService()

	placeholder, err := service.NewPlaceholderService(&cfg.Image.Placeholder)
	if err != nil {
		return fmt.Errorf("failed to initialize placeholder service: %w", err)
	}

	cropService := service.NewCropService(repo, source, renderCache, processor, placeholder, cfg)
	imageService := service.NewImageService(repo, source, renderCache, processor, cfg)
	healthService := service.NewHealthService(repo, source, AppVersion)

	router := api.NewRouter(cfg, cropService, imageService, healthService)

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router.GetEngine(),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", server.Addr),
			zap.String("mode", cfg.Server.GinMode))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	logger.Info(AppName+" started successfully",
		zap.String("version", AppVersion),
		zap.String("port", cfg.Server.Port))

	return waitForShutdown(server, serverErrChan)
}

// waitForShutdown blocks until a shutdown signal or server error
func waitForShutdown(server *http.Server, serverErrChan chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		return err
	case sig := <-quit:
		logger.Info("Received shutdown signal, starting graceful shutdown",
			zap.String("signal", sig.String()))

		return gracefulShutdown(server)
	}
}

// gracefulShutdown drains in-flight requests before exiting
func gracefulShutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	logger.Info("Shutting down HTTP server",
		zap.Duration("timeout", ShutdownTimeout))

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to gracefully shutdown server", zap.Error(err))
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server shut down successfully")
	return nil
}
