package api

import (
	"net/http" // HTTP status codes

	"storefront/internal/checkout"   // Purchase core
	"storefront/internal/history"    // Order history
	"storefront/internal/middleware" // Caller lookup

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact decimal arithmetic
	"github.com/sirupsen/logrus"    // Logging library
)

// CommitRequest is the body of POST /orders/commit
type CommitRequest struct {
	UserID string            `json:"userId" binding:"required"` // Buyer to debit
	Cart   []CartItemRequest `json:"cart" binding:"required"`   // Lines to purchase
	Total  *decimal.Decimal  `json:"total" binding:"required"`  // Declared total, debited as sent
}

// CommitHandler performs a purchase for the buyer named in the body
func CommitHandler(committer *checkout.Committer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CommitRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err) // Missing user, cart or total
			return
		}
		caller := middleware.Caller(c) // Authenticated user
		// Only the buyer themself or an admin may spend the buyer's balance
		if !caller.CanActFor(req.UserID) {
			logrus.WithFields(logrus.Fields{
				"caller_id": c.GetString(middleware.UserIDKey), // Authenticated user
				"buyer_id":  req.UserID,                        // Requested buyer
			}).Warn("Commit for another user refused")
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to purchase for this user"})
			return
		}
		receipt, err := committer.Commit(c.Request.Context(), req.UserID, toCartLines(req.Cart), *req.Total)
		if err != nil {
			writeError(c, err) // Typed business error or opaque failure
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":               true,                              // Purchase committed
			"message":          "Purchase completed successfully", // Summary
			"orderId":          receipt.OrderID,                   // New order
			"remainingBalance": receipt.RemainingBalance,          // Balance after debit
		})
	}
}

// ListOrdersHandler returns a buyer's order history, most recent first
func ListOrdersHandler(assembler *history.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := assembler.ListOrders(c.Request.Context(), middleware.Caller(c), c.Param("userId"))
		if err != nil {
			writeError(c, err) // Unauthorized or store failure
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders}) // Empty list when none
	}
}

// GetOrderHandler returns one order of the caller, or of anyone for admins
func GetOrderHandler(assembler *history.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := assembler.GetOrder(c.Request.Context(), middleware.Caller(c), c.Param("orderId"))
		if err != nil {
			writeError(c, err) // Not found, unauthorized or store failure
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}
