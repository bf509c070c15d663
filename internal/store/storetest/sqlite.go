// Package storetest opens throwaway SQLite-backed stores for tests.
package storetest

import (
	"context" // Context for migrations
	"testing" // Test helpers

	"storefront/internal/store/gormstore" // GORM store

	"github.com/stretchr/testify/require" // Test assertions
	"gorm.io/driver/sqlite"               // GORM SQLite dialect
	"gorm.io/gorm"                        // ORM library
	"gorm.io/gorm/logger"                 // Silent SQL logger
)

// NewGormStore returns a migrated store on a private in-memory database.
// The pool is capped at one connection, so transactions run one at a time
// the way row locks serialize them on MySQL.
func NewGormStore(t testing.TB) *gormstore.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,                                  // Same error mapping as production
		Logger:         logger.Default.LogMode(logger.Silent), // Keep test output quiet
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // One shared in-memory database
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := gormstore.New(db)
	require.NoError(t, s.AutoMigrate(context.Background()))
	return s
}
