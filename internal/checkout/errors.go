package checkout

import (
	"fmt" // Error formatting

	"storefront/internal/errs" // Error kinds

	"github.com/shopspring/decimal" // Exact decimal arithmetic
)

// Shortage reasons
const (
	ReasonInvalidQuantity   = "invalid quantity"
	ReasonNotFound          = "not found"
	ReasonInsufficientStock = "insufficient stock"
)

var (
	ErrEmptyCart     = fmt.Errorf("%w: cart is empty", errs.ErrInvalidInput)
	ErrMissingBuyer  = fmt.Errorf("%w: buyer id is required", errs.ErrInvalidInput)
	ErrNegativeTotal = fmt.Errorf("%w: total must not be negative", errs.ErrInvalidInput)
	ErrInvalidTotal  = fmt.Errorf("%w: total must have at most 2 decimals and 10 integer digits", errs.ErrInvalidInput)
	ErrBuyerNotFound = fmt.Errorf("buyer %w", errs.ErrNotFound)
)

// Shortage describes a cart line that cannot be served as requested
type Shortage struct {
	ProductID string `json:"productId"`      // Requested product
	Name      string `json:"name,omitempty"` // Known only when the product exists
	Available int    `json:"available"`      // Units in stock
	Requested int    `json:"requested"`      // Units in the cart
	Reason    string `json:"reason"`         // One of the Reason constants
}

// ShortageError aborts a commit because one line could not be served. It
// matches errs.ErrInsufficientStock, errs.ErrNotFound or errs.ErrInvalidInput
// depending on Reason.
type ShortageError struct {
	Shortage
}

func (e *ShortageError) Error() string {
	switch e.Reason {
	case ReasonInsufficientStock:
		return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", e.ProductID, e.Available, e.Requested)
	case ReasonNotFound:
		return fmt.Sprintf("product %q not found", e.ProductID)
	default:
		return fmt.Sprintf("invalid quantity %d for product %q", e.Requested, e.ProductID)
	}
}

func (e *ShortageError) Unwrap() error {
	switch e.Reason {
	case ReasonInsufficientStock:
		return errs.ErrInsufficientStock
	case ReasonNotFound:
		return errs.ErrNotFound
	default:
		return errs.ErrInvalidInput
	}
}

// BalanceError reports a buyer who cannot afford the declared total
type BalanceError struct {
	Balance  decimal.Decimal
	Required decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need %s", e.Balance, e.Required)
}

func (e *BalanceError) Unwrap() error {
	return errs.ErrInsufficientBalance
}

// TotalMismatchError is returned only when mismatched totals are rejected
type TotalMismatchError struct {
	Declared decimal.Decimal
	Computed decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("declared total %s does not match line total %s", e.Declared, e.Computed)
}

func (e *TotalMismatchError) Unwrap() error {
	return errs.ErrInvalidInput
}

func storeFailure(err error) error {
	return fmt.Errorf("%w: %w", errs.ErrStoreFailure, err)
}
