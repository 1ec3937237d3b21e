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

	"go.uber.org/zap"

	"docqa-backend/internal/config"
	"docqa-backend/internal/handlers"
	"docqa-backend/internal/observability"
	"docqa-backend/internal/router"
	"docqa-backend/internal/services"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("✗ Logger initialization failed: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting docqa backend", zap.String("env", cfg.Env))

	// ──── Step 2: Prepare Upload Scratch Directory ────
	if err := os.MkdirAll(cfg.StoragePath, 0o750); err != nil {
		logger.Fatal("upload directory unavailable", zap.String("path", cfg.StoragePath), zap.Error(err))
	}
	logger.Info("✓ upload directory ready", zap.String("path", cfg.StoragePath))

	// ──── Step 3: Initialize Completion Client ────
	completer, closeCompleter, err := services.NewCompleter(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("completion client initialization failed", zap.Error(err))
	}
	defer closeCompleter()
	logger.Info("✓ completion client initialized",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model))

	// ──── Step 4: Initialize Services and Handlers ────
	qaService := services.NewQAService(services.NewFileExtractService(), completer, cfg.Model, logger)
	askHandler := handlers.NewAskHandler(qaService, cfg.StoragePath, cfg.MaxUploadMB, cfg.MaxFiles, logger)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(askHandler, cfg.FrontendURL, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	logger.Info("✓ docqa backend ready",
		zap.String("api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port)))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
