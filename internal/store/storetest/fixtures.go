package storetest

import (
	"context" // Context for inserts
	"testing" // Test helpers

	"storefront/internal/domain" // Importing domain models
	"storefront/internal/store"  // Store contract

	"github.com/shopspring/decimal"       // Exact decimal arithmetic
	"github.com/stretchr/testify/require" // Test assertions
)

// SeedUser creates a user with the given role and balance
func SeedUser(t testing.TB, q store.Querier, role string, balance string) *domain.User {
	t.Helper()
	id := domain.NewID()
	user := &domain.User{
		ID:       id,
		UserName: "user-" + id[:8],
		Email:    id[:8] + "@example.com",
		Password: "$2a$10$placeholderplaceholderplaceholderplaceholderplacehold",
		Role:     role,
		Balance:  decimal.RequireFromString(balance),
	}
	require.NoError(t, q.CreateUser(context.Background(), user))
	return user
}

// SeedProduct creates a product owned by sellerID
func SeedProduct(t testing.TB, q store.Querier, sellerID, name, price string, quantity int) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Quantity:   quantity,
		SellerID:   sellerID,
		CategoryID: "flowers",
		Image:      "/uploads/" + name + ".jpg",
	}
	require.NoError(t, q.CreateProduct(context.Background(), product))
	return product
}
