// Package store defines the persistence contract used by the checkout core.
// Every method takes the context of the caller; a Querier handed out by
// Store.Transaction is bound to that transaction and must not escape it.
package store

import (
	"context" // Context for store calls
	"errors"  // Error matching

	"storefront/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Exact decimal arithmetic
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicate            = errors.New("duplicate record")
	ErrInsufficientQuantity = errors.New("insufficient product quantity")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	// ErrConflict marks a transaction aborted by the database because of a
	// concurrent writer. The whole transaction may be retried.
	ErrConflict = errors.New("transaction conflict")
)

// ProductFilter narrows ListProducts. Empty fields match everything.
type ProductFilter struct {
	SellerID   string
	CategoryID string
}

// Querier is the set of reads and writes available both inside and outside
// a transaction.
type Querier interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// GetProductForUpdate reads the product and, where the backend supports
	// it, locks it until the surrounding transaction ends.
	GetProductForUpdate(ctx context.Context, id string) (*domain.Product, error)
	// GetProducts returns the products that still exist, keyed by id.
	GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error)
	// ListProducts returns the matching products, newest first.
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	// DecrementProductQuantity subtracts amount from the stock only when at
	// least amount units are available, else ErrInsufficientQuantity.
	DecrementProductQuantity(ctx context.Context, id string, amount int) error

	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserForUpdate(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	// DebitBalance subtracts amount only when the balance covers it, else
	// ErrInsufficientBalance.
	DebitBalance(ctx context.Context, id string, amount decimal.Decimal) error

	// ListCategories returns every category ordered by name.
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, id string) error

	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	// ListOrdersByBuyer returns the buyer's orders, most recent first.
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
}

// Store is a Querier bound to the database plus a transaction boundary.
type Store interface {
	Querier
	// Transaction runs fn inside one atomic transaction. A non-nil error from
	// fn rolls everything back and is returned unchanged.
	Transaction(ctx context.Context, fn func(tx Querier) error) error
}

// LegacyCredential is a user still carrying the pre-migration password field
type LegacyCredential struct {
	ID             string
	Password       string
	LegacyPassword string
}

// Migrator is implemented by stores that can prepare their schema and move
// legacy credentials. Only the migrate command uses it.
type Migrator interface {
	AutoMigrate(ctx context.Context) error
	LegacyCredentials(ctx context.Context) ([]LegacyCredential, error)
	// ReplaceCredential stores hash as the password and clears the legacy field
	ReplaceCredential(ctx context.Context, id, hash string) error
}
