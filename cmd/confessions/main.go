package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slack-confessions/internal/config"
	"slack-confessions/internal/handler"
	"slack-confessions/internal/logger"
	"slack-confessions/internal/server"
	"slack-confessions/internal/service"
	"slack-confessions/internal/slack"
	"slack-confessions/internal/storage"
)

func main() {
	// Define command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging first
	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	// Initialize database
	if err := storage.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	repository := storage.NewConfessionRepository(storage.GetDB())
	if err := repository.MigrateTable(); err != nil {
		log.Fatalf("Failed to migrate confessions table: %v", err)
	}

	// Wire up the components: Slack client, workflow, handlers, server
	client := slack.NewClient(cfg.Slack.APIBaseURL, cfg.Slack.BotToken)
	moderator := service.NewModerator(
		repository,
		client,
		cfg.Slack.StagingChannel,
		cfg.Slack.PublicChannel,
		cfg.Slack.RecordURLBase,
	)
	h := handler.New(slack.NewVerifier(cfg.Slack.SigningSecret), slack.NewReplayGuard(), moderator, client)
	srv := server.New(cfg, h)

	// Start HTTP server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Create a channel for receiving OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for signal or server failure
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v, shutting down...", sig)
	case err := <-errChan:
		log.Fatalf("HTTP server error: %v", err)
	}

	// Gracefully shutdown server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Server gracefully stopped")
}
