package api

import (
	"bytes"         // Raw JSON inspection
	"encoding/json" // Raw quantity decoding
	"math"          // Quantity bounds
	"net/http"      // HTTP status codes

	"storefront/internal/checkout"   // Purchase core
	"storefront/internal/domain"     // Importing domain models
	"storefront/internal/middleware" // Context keys
	"storefront/internal/store"      // Store contract

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact decimal arithmetic
	"github.com/sirupsen/logrus"    // Logging library
)

// CartItemRequest is one cart line as sent by the storefront client
type CartItemRequest struct {
	ProductID string          `json:"productId"` // Product reference
	LegacyID  string          `json:"_id"`       // Older clients send the product id as _id
	Quantity  json.RawMessage `json:"qunty"`     // Number or numeric string
	Price     decimal.Decimal `json:"price"`     // Display only, never trusted
	Name      string          `json:"name"`      // Display only
	Image     string          `json:"image"`     // Display only
}

// ValidateCartRequest is the body of POST /cart/validate
type ValidateCartRequest struct {
	CartItems []CartItemRequest `json:"cartItems"` // Lines to check
}

// parseQuantity reads a positive or non-positive integer quantity. Anything
// that is not an integer yields 0, which the core reports as invalid.
func parseQuantity(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0 // Missing quantity
	}
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0 // Broken string
		}
	} else {
		text = string(raw)
	}
	d, err := decimal.NewFromString(text)
	if err != nil || !d.IsInteger() {
		return 0 // Non-numeric or fractional
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) || d.LessThan(decimal.NewFromInt(math.MinInt32)) {
		return 0 // Out of range
	}
	return int(d.IntPart())
}

// toCartLines converts request lines to core cart lines
func toCartLines(items []CartItemRequest) []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		productID := item.ProductID
		if productID == "" {
			productID = item.LegacyID // Fall back to the legacy field
		}
		lines = append(lines, domain.CartLine{
			ProductID: productID,
			Quantity:  parseQuantity(item.Quantity),
			Price:     item.Price,
			Name:      item.Name,
			Image:     item.Image,
		})
	}
	return lines
}

// ValidateCartHandler checks a cart against current stock without changing it
func ValidateCartHandler(q store.Querier, validator *checkout.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValidateCartRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err) // Malformed body
			return
		}
		res, err := validator.Validate(c.Request.Context(), q, toCartLines(req.CartItems))
		if err != nil {
			writeError(c, err) // Empty cart or store failure
			return
		}
		// Shortages answer 400 with the per-line detail
		if !res.OK {
			logrus.WithFields(logrus.Fields{
				"user_id":   c.GetString(middleware.UserIDKey), // Caller
				"shortages": len(res.Shortages),                // Number of failing lines
			}).Info("Cart validation found shortages")
			c.JSON(http.StatusBadRequest, gin.H{
				"ok":             false,                                // Not every line can be served
				"message":        "Some items have insufficient stock", // Summary
				"shortages":      res.Shortages,                        // Failing lines
				"availableItems": res.Priced,                           // Lines that can be served
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":             true,       // Every line can be served
			"availableItems": res.Priced, // Current prices and stock
		})
	}
}
