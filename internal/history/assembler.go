// Package history turns persisted orders into the buyer's order history.
package history

import (
	"context" // Context for store calls
	"errors"  // Error matching
	"fmt"     // Error wrapping
	"time"    // Cache TTL

	"storefront/internal/domain" // Importing domain models
	"storefront/internal/errs"   // Error kinds
	"storefront/internal/store"  // Store contract

	"github.com/sirupsen/logrus" // Logging library
)

// DefaultCacheTTL bounds how long an assembled history is served from cache
const DefaultCacheTTL = 60 * time.Second

// Cache stores assembled histories as JSON. A miss is (false, nil).
// Generation reads a counter that Bump increments; a missing counter is 0.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Generation(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, key string) error
}

// Assembler reads orders and resolves their lines against the live catalog
type Assembler struct {
	store store.Querier // Orders and catalog
	cache Cache         // Optional read-through cache
	ttl   time.Duration // Lifetime of a cached history
}

// NewAssembler returns an Assembler. cache may be nil.
func NewAssembler(q store.Querier, cache Cache, ttl time.Duration) *Assembler {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Assembler{store: q, cache: cache, ttl: ttl}
}

// CacheKey is the cache key of buyerID's history
func CacheKey(buyerID string) string {
	return "orders:user:" + buyerID
}

// GenerationKey counts the commits of buyerID seen by the cache
func GenerationKey(buyerID string) string {
	return CacheKey(buyerID) + ":gen"
}

// ListOrders returns buyerID's orders, most recent first. Only the buyer or
// an admin may read them. A buyer without orders gets an empty slice.
func (a *Assembler) ListOrders(ctx context.Context, caller *domain.User, buyerID string) ([]OrderView, error) {
	if buyerID == "" {
		return nil, fmt.Errorf("%w: user id is required", errs.ErrInvalidInput)
	}
	if !caller.CanActFor(buyerID) {
		return nil, fmt.Errorf("%w: orders of user %s", errs.ErrUnauthorized, buyerID)
	}

	key := CacheKey(buyerID)
	cacheable := false
	var generation int64
	if a.cache != nil {
		var cached []OrderView
		hit, err := a.cache.Get(ctx, key, &cached)
		if err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Order history cache read failed")
		} else if hit {
			return cached, nil
		}
		// Read before the store so a commit racing this read is detected
		generation, err = a.cache.Generation(ctx, GenerationKey(buyerID))
		if err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Order history generation read failed")
		} else {
			cacheable = true
		}
	}

	orders, err := a.store.ListOrdersByBuyer(ctx, buyerID) // Most recent first
	if err != nil {
		return nil, storeFailure(err)
	}
	catalog, err := a.store.GetProducts(ctx, productIDs(orders...)) // Live products, deleted ones absent
	if err != nil {
		return nil, storeFailure(err)
	}

	views := make([]OrderView, 0, len(orders)) // Empty, not nil, without orders
	for _, order := range orders {
		views = append(views, assemble(order, catalog))
	}

	if cacheable {
		a.remember(ctx, buyerID, generation, views)
	}
	return views, nil
}

// remember caches views read at generation. If a commit bumped the
// generation meanwhile the entry may lack its order and is dropped again.
func (a *Assembler) remember(ctx context.Context, buyerID string, generation int64, views []OrderView) {
	key := CacheKey(buyerID)
	log := logrus.WithField("key", key)
	if err := a.cache.Set(ctx, key, views, a.ttl); err != nil {
		log.WithField("error", err.Error()).Warn("Order history cache write failed")
		return
	}
	current, err := a.cache.Generation(ctx, GenerationKey(buyerID)) // Compare with the read generation
	if err == nil && current == generation {
		return
	}
	log.WithField("generation", generation).Debug("Order history changed while reading, dropping cache entry")
	if err := a.cache.Delete(ctx, key); err != nil {
		log.WithField("error", err.Error()).Warn("Order history cache invalidation failed")
	}
}

// GetOrder returns one order, readable by its buyer or an admin
func (a *Assembler) GetOrder(ctx context.Context, caller *domain.User, orderID string) (*OrderView, error) {
	order, err := a.store.GetOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("order %w", errs.ErrNotFound)
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	if !caller.CanActFor(order.BuyerID) {
		return nil, fmt.Errorf("%w: order %s", errs.ErrUnauthorized, orderID)
	}

	catalog, err := a.store.GetProducts(ctx, productIDs(*order))
	if err != nil {
		return nil, storeFailure(err)
	}
	view := assemble(*order, catalog)
	return &view, nil
}

// Invalidate drops the cached history of buyerID. The generation is bumped
// first so a read already in flight does not cache its stale result.
func (a *Assembler) Invalidate(ctx context.Context, buyerID string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Bump(ctx, GenerationKey(buyerID)); err != nil {
		logrus.WithFields(logrus.Fields{"buyer_id": buyerID, "error": err.Error()}).Warn("Order history generation bump failed")
	}
	if err := a.cache.Delete(ctx, CacheKey(buyerID)); err != nil {
		logrus.WithFields(logrus.Fields{"buyer_id": buyerID, "error": err.Error()}).Warn("Order history cache invalidation failed")
	}
}

func storeFailure(err error) error {
	return fmt.Errorf("%w: %w", errs.ErrStoreFailure, err)
}
