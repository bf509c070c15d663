package gormstore

import (
	"context" // Context for store calls

	"storefront/internal/domain" // Importing domain models
	"storefront/internal/store"  // Store contract
)

// AutoMigrate creates or updates the tables, indexes and constraints
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&domain.User{}, &domain.Category{}, &domain.Product{}, &domain.Order{}, &domain.OrderLine{})
}

// LegacyCredentials lists users whose legacy password column is still set
func (s *Store) LegacyCredentials(ctx context.Context) ([]store.LegacyCredential, error) {
	var creds []store.LegacyCredential
	err := s.db.WithContext(ctx).
		Model(&domain.User{}).
		Select("id", "password", "passwrd AS legacy_password").
		Where("passwrd IS NOT NULL AND passwrd <> ''").
		Scan(&creds).Error
	if err != nil {
		return nil, classify(err)
	}
	return creds, nil
}

// ReplaceCredential implements store.Migrator
func (s *Store) ReplaceCredential(ctx context.Context, id, hash string) error {
	res := s.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password": hash, "passwrd": ""})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
