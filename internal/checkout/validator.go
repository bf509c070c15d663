// Package checkout holds the purchase core: an advisory inventory check and
// the transactional commit that decrements stock, debits the buyer and
// records the order.
//
// A cart that validates clean can still
// fail to commit when another buyer's purchase lands in between; the commit
// result is authoritative, validation is a hint for the client.
package checkout

import (
	"context" // Context for store calls
	"errors"  // Error matching

	"storefront/internal/domain" // Importing domain models
	"storefront/internal/store"  // Store contract

	"github.com/shopspring/decimal" // Exact decimal arithmetic
)

// PricedLine is a cart line that can be served, with current catalog data
type PricedLine struct {
	ProductID string          `json:"productId"` // Catalog product
	Name      string          `json:"name"`      // Current name
	Price     decimal.Decimal `json:"price"`     // Current unit price
	Available int             `json:"available"` // Units in stock now
	Requested int             `json:"requested"` // Units in the cart
}

// Result is the outcome of a validation. Shortages are data, not errors.
type Result struct {
	OK        bool         `json:"ok"`             // True when nothing is short
	Shortages []Shortage   `json:"shortages"`      // Lines that cannot be served
	Priced    []PricedLine `json:"availableItems"` // Lines that can
}

// Validator checks carts against current stock. It never writes.
type Validator struct{}

// NewValidator returns a Validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks every line against q, which may be the store itself or a
// transaction chosen by the caller. It fails only on an empty cart or a
// store error.
func (v *Validator) Validate(ctx context.Context, q store.Querier, lines []domain.CartLine) (*Result, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	res := &Result{Shortages: []Shortage{}, Priced: []PricedLine{}} // Never null in JSON
	for _, line := range lines {
		product, shortage, err := inspect(ctx, q.GetProduct, line) // Plain read, no lock
		if err != nil {
			return nil, storeFailure(err)
		}
		if shortage != nil {
			res.Shortages = append(res.Shortages, *shortage)
			continue
		}
		res.Priced = append(res.Priced, PricedLine{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Available: product.Quantity,
			Requested: line.Quantity,
		})
	}
	res.OK = len(res.Shortages) == 0
	return res, nil
}

// reserve is the commit-time counterpart of Validate for a single line: it
// re-reads the product under lock, applies the same checks and decrements
// the stock. Must run inside a transaction.
func (v *Validator) reserve(ctx context.Context, tx store.Querier, line domain.CartLine) (*domain.Product, error) {
	product, shortage, err := inspect(ctx, tx.GetProductForUpdate, line) // Locked until the transaction ends
	if err != nil {
		return nil, err
	}
	if shortage != nil {
		return nil, &ShortageError{Shortage: *shortage}
	}

	err = tx.DecrementProductQuantity(ctx, product.ID, line.Quantity) // Guarded by quantity >= amount
	switch {
	case err == nil:
		return product, nil
	case errors.Is(err, store.ErrInsufficientQuantity):
		available := product.Quantity // Fall back to the locked read
		if current, getErr := tx.GetProduct(ctx, product.ID); getErr == nil {
			available = current.Quantity
		}
		return nil, &ShortageError{Shortage: Shortage{
			ProductID: product.ID,
			Name:      product.Name,
			Available: available,
			Requested: line.Quantity,
			Reason:    ReasonInsufficientStock,
		}}
	case errors.Is(err, store.ErrNotFound):
		return nil, &ShortageError{Shortage: Shortage{ProductID: line.ProductID, Requested: line.Quantity, Reason: ReasonNotFound}}
	default:
		return nil, err
	}
}

type productGetter func(ctx context.Context, id string) (*domain.Product, error)

// inspect returns either the product able to serve line or the shortage
// that prevents it. The error is set only for store failures.
func inspect(ctx context.Context, get productGetter, line domain.CartLine) (*domain.Product, *Shortage, error) {
	if line.Quantity <= 0 {
		return nil, &Shortage{ProductID: line.ProductID, Requested: line.Quantity, Reason: ReasonInvalidQuantity}, nil
	}
	if line.ProductID == "" {
		return nil, &Shortage{Requested: line.Quantity, Reason: ReasonNotFound}, nil
	}

	product, err := get(ctx, line.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &Shortage{ProductID: line.ProductID, Requested: line.Quantity, Reason: ReasonNotFound}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if line.Quantity > product.Quantity {
		return nil, &Shortage{
			ProductID: product.ID,
			Name:      product.Name,
			Available: product.Quantity,
			Requested: line.Quantity,
			Reason:    ReasonInsufficientStock,
		}, nil
	}
	return product, nil, nil
}
