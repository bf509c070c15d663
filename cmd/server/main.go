package main

import (
	"context"   // context package is needed for Redis operations
	"errors"    // Error matching
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // Signals
	"time"      // Timeouts

	"storefront/internal/api"      // Custom package for API handlers
	"storefront/internal/checkout" // Purchase core
	"storefront/internal/config"   // Custom package for configuration
	"storefront/internal/db"       // Database selection
	"storefront/internal/events"   // Order events
	"storefront/internal/history"  // Order history
	"storefront/internal/utils"    // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database selected by DB_DRIVER
	backend, closeDB, err := db.Open(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	defer closeDB()

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	defer redisClient.Close()

	// Test Redis connection
	_, err = redisClient.Ping(ctx).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Order events are optional
	opts := checkout.Options{
		Retries:             cfg.CommitRetries,       // Attempts on conflicts
		RejectTotalMismatch: cfg.RejectTotalMismatch, // Total mismatch policy
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := publisher.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close event publisher")
			}
		}()
		opts.Notifier = publisher
	} else {
		logrus.Info("KAFKA_BROKERS not set, order events disabled")
	}

	validator := checkout.NewValidator()
	cache := utils.NewRedisCache(redisClient)                                  // Order history cache
	assembler := history.NewAssembler(backend, cache, history.DefaultCacheTTL) // Order history
	opts.History = assembler                                                   // Commits invalidate the buyer's history
	deps := api.Deps{
		Store:           backend,                                         // Selected store
		Validator:       validator,                                       // Advisory stock check
		Committer:       checkout.NewCommitter(backend, validator, opts), // Purchase core
		History:         assembler,                                       // Order history
		JWTSecret:       cfg.JWTSecret,                                   // JWT secret key
		StartingBalance: cfg.DefaultBalance,                              // Balance of new users
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(deps) // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort, // Listen address
		Handler:           r,                 // Gin engine
		ReadHeaderTimeout: 10 * time.Second,  // Header read limit
	}
	go func() {
		logrus.WithField("driver", cfg.DBDriver).Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done() // Wait for a shutdown signal
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	logrus.Info("Server stopped")
}
