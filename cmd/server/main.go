package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/api"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/app"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/config"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/drive"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/metrics"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/pkg/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetJSON()
		gin.SetMode(gin.ReleaseMode)
	}
	log.Logger = logger.Log

	collector := metrics.NewCollector()

	ctx := context.Background()
	components, err := app.Build(ctx, cfg, collector)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize calculation service")
	}

	services := &api.Services{
		Calculation: components.Service,
		Defaults:    components.Defaults,
		Metrics:     collector,
	}
	if components.Drive != nil {
		services.Drive = drive.NewHandler(components.Drive, cfg.Drive.FolderID)
	}

	router := api.NewRouter(services, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
