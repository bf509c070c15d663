package db

import (
	"context" // Context for store operations
	"fmt"     // Error wrapping

	"storefront/internal/store" // Store contract

	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// Migrate performs automatic migration for the database schema, then moves
// legacy credentials into the password field.
func Migrate(ctx context.Context, m store.Migrator) error {
	// AutoMigrate will create tables, indexes and constraints
	if err := m.AutoMigrate(ctx); err != nil {
		return fmt.Errorf("schema migration: %w", err)
	}
	migrated, err := MigrateLegacyPasswords(ctx, m)
	if err != nil {
		return fmt.Errorf("legacy password migration: %w", err)
	}
	logrus.WithField("migrated_credentials", migrated).Info("Migration completed.") // Log successful migration
	return nil
}

// MigrateLegacyPasswords empties the legacy passwrd field of every user.
// A user without a password takes the legacy value, hashed with bcrypt if it
// is not a bcrypt hash already; a user with both keeps the password. It
// returns the number of users updated and can be run again safely.
func MigrateLegacyPasswords(ctx context.Context, m store.Migrator) (int, error) {
	creds, err := m.LegacyCredentials(ctx)
	if err != nil {
		return 0, err
	}
	migrated := 0
	for _, cred := range creds {
		hash, err := credentialHash(cred)
		if err != nil {
			return migrated, fmt.Errorf("user %s: %w", cred.ID, err)
		}
		if err := m.ReplaceCredential(ctx, cred.ID, hash); err != nil {
			return migrated, fmt.Errorf("user %s: %w", cred.ID, err)
		}
		logrus.WithField("user_id", cred.ID).Info("Migrated legacy password")
		migrated++
	}
	return migrated, nil
}

// credentialHash picks the hash a migrated user ends up with
func credentialHash(cred store.LegacyCredential) (string, error) {
	if cred.Password != "" {
		return cred.Password, nil // Current password wins, as it did at login
	}
	if _, err := bcrypt.Cost([]byte(cred.LegacyPassword)); err == nil {
		return cred.LegacyPassword, nil // Already a bcrypt hash
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cred.LegacyPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
