package db

import (
	"context" // Context for connections
	"fmt"     // Error formatting
	"time"    // Connection timeouts

	"storefront/internal/config"           // Configuration
	"storefront/internal/store"            // Store contract
	"storefront/internal/store/gormstore"  // MySQL store
	"storefront/internal/store/mongostore" // MongoDB store

	"github.com/sirupsen/logrus" // Logging library
)

// Backend is an opened store that can also run migrations
type Backend interface {
	store.Store
	store.Migrator
}

// Open connects to the database selected by cfg.DBDriver. The returned
// function releases the connection.
func Open(ctx context.Context, cfg *config.Config) (Backend, func(), error) {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		s, err := gormstore.Open(cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect mysql: %w", err)
		}
		sqlDB, err := s.DB().DB()
		if err != nil {
			return nil, nil, err
		}
		sqlDB.SetMaxOpenConns(25)                  // Bound concurrent transactions
		sqlDB.SetConnMaxLifetime(30 * time.Minute) // Recycle connections
		return s, func() {
			if err := sqlDB.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close MySQL connection")
			}
		}, nil
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		s, err := mongostore.Connect(connectCtx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		return s, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Disconnect(closeCtx); err != nil {
				logrus.WithError(err).Warn("Failed to disconnect MongoDB")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
