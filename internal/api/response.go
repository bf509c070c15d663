package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"storefront/internal/checkout"   // Purchase core errors
	"storefront/internal/errs"       // Error kinds
	"storefront/internal/middleware" // Request id

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// writeError renders err with the status of its kind. Shortage and balance
// errors carry their structured detail; anything unexpected is opaque.
func writeError(c *gin.Context, err error) {
	var (
		shortage *checkout.ShortageError
		balance  *checkout.BalanceError
		mismatch *checkout.TotalMismatchError
	)
	switch {
	case errors.As(err, &shortage):
		// Missing products at commit time are a cart problem, not a 404
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":       false,             // Commit refused
			"error":    shortage.Error(),  // Human readable reason
			"shortage": shortage.Shortage, // productId, available, requested
		})
	case errors.As(err, &balance):
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":       false,                  // Commit refused
			"error":    "Insufficient balance", // Human readable reason
			"balance":  balance.Balance,        // Current balance
			"required": balance.Required,       // Declared total
		})
	case errors.As(err, &mismatch):
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":       false,             // Commit refused
			"error":    mismatch.Error(),  // Human readable reason
			"declared": mismatch.Declared, // Total sent by the client
			"computed": mismatch.Computed, // Sum of current line prices
		})
	default:
		status := errs.StatusCode(err)
		if status == http.StatusInternalServerError {
			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(middleware.RequestIDKey), // Request ID
				"path":       c.FullPath(),                         // Route pattern
				"error":      err.Error(),                          // Error message
			}).Error("Request failed")
			c.JSON(status, gin.H{"error": "Internal server error"}) // Opaque to the client
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

// badRequest reports a malformed request body
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "detail": err.Error()})
}
