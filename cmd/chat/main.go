package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"docqa-backend/internal/chat"
	"docqa-backend/internal/config"
	"docqa-backend/internal/observability"
	"docqa-backend/internal/services"
)

func main() {
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger initialization failed: %v", err)
	}
	defer logger.Sync()

	completer, closeCompleter, err := services.NewCompleter(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("completion client initialization failed", zap.Error(err))
	}
	defer closeCompleter()

	fmt.Printf("Chatting with %s. Type \"exit\" to quit.\n", cfg.ChatModel)

	session := chat.NewSession(completer, cfg.ChatModel, logger)
	if err := session.Run(context.Background(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeCompleter()
		logger.Sync()
		os.Exit(1)
	}
}
