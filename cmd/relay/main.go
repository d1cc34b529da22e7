package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/telhawk-systems/telemetry-relay/internal/auth"
	"github.com/telhawk-systems/telemetry-relay/internal/broker/natsbroker"
	"github.com/telhawk-systems/telemetry-relay/internal/config"
	"github.com/telhawk-systems/telemetry-relay/internal/forwarder"
	"github.com/telhawk-systems/telemetry-relay/internal/handlers"
	"github.com/telhawk-systems/telemetry-relay/internal/logging"
	"github.com/telhawk-systems/telemetry-relay/internal/ratelimit"
	"github.com/telhawk-systems/telemetry-relay/internal/server"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("relay"))
	logging.SetDefault(logger)

	slog.Info("Starting telemetry relay",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("broker_url", cfg.Broker.URL),
		slog.String("broker_subject", cfg.Broker.Subject),
		slog.Bool("compressed", cfg.Ingestion.Compressed),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Initialize rate limiter
	var rateLimiter ratelimit.RateLimiter
	if cfg.Redis.Enabled && cfg.Ingestion.RateLimitEnabled {
		log.Printf("Initializing Redis rate limiter: %s", cfg.Redis.URL)
		limiter, err := ratelimit.NewRedisRateLimiter(
			cfg.Redis.URL,
			cfg.Ingestion.RateLimitRequests,
			cfg.Ingestion.RateLimitWindow,
		)
		if err != nil {
			log.Printf("WARNING: Failed to initialize Redis rate limiter: %v", err)
			log.Println("Continuing without rate limiting")
			rateLimiter = &ratelimit.NoOpRateLimiter{}
		} else {
			rateLimiter = limiter
			log.Printf("Rate limiting enabled: %d requests per %s", cfg.Ingestion.RateLimitRequests, cfg.Ingestion.RateLimitWindow)
		}
	} else {
		rateLimiter = &ratelimit.NoOpRateLimiter{}
	}
	defer rateLimiter.Close()

	// Connect to the broker. The client is constructed once, shared across all
	// requests, and closed exactly once on the way out.
	brokerCtx, brokerCancel := context.WithTimeout(context.Background(), 30*time.Second)
	brokerClient, err := natsbroker.New(brokerCtx, natsbroker.Config{
		URL:           cfg.Broker.URL,
		Subject:       cfg.Broker.Subject,
		Stream:        cfg.Broker.Stream,
		Name:          cfg.Broker.Name,
		MaxReconnects: cfg.Broker.MaxReconnects,
		ReconnectWait: cfg.Broker.ReconnectWait,
		Timeout:       cfg.Broker.ConnectTimeout,
	})
	brokerCancel()
	if err != nil {
		log.Fatalf("Failed to connect to broker: %v", err)
	}
	defer func() {
		if err := brokerClient.Close(); err != nil {
			log.Printf("Error closing broker client: %v", err)
		} else {
			log.Println("Broker client closed")
		}
	}()

	// Wire the pipeline: credential check, forwarder, HTTP handlers.
	cred := auth.NewCredential(cfg.Auth.Username, cfg.Auth.Password)
	fwd := forwarder.New(brokerClient, logger)

	handler := handlers.NewRelayHandler(fwd, cred, rateLimiter, handlers.Options{
		Compressed:  cfg.Ingestion.Compressed,
		MaxBodySize: cfg.Ingestion.MaxBodySize,
		Logger:      logger,
	})
	router := server.NewRouter(handler)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Relay listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
