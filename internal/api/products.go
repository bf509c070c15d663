package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"storefront/internal/domain"     // Importing domain models
	"storefront/internal/middleware" // Caller lookup
	"storefront/internal/store"      // Store contract

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact decimal arithmetic
	"github.com/sirupsen/logrus"    // Logging library
)

// CreateProductRequest is the body of POST /products
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required"`           // Product name
	Description string           `json:"description"`                       // Free-form description
	Price       *decimal.Decimal `json:"price" binding:"required"`          // Unit price
	Quantity    *int             `json:"quantity" binding:"required,min=0"` // Initial stock
	CategoryID  string           `json:"category"`                          // Category reference
	Image       string           `json:"image"`                             // Image reference
}

// CreateProductHandler lists a new product owned by the caller
func CreateProductHandler(s store.Querier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateProductRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err) // If binding fails, return bad request
			return
		}
		// Prices are never negative
		if req.Price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
			return
		}
		// Prices fit the money column exactly
		if !domain.ValidMoney(*req.Price) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price must have at most 2 decimals and 10 integer digits"})
			return
		}
		product := &domain.Product{
			Name:        req.Name,                // Product name
			Description: req.Description,         // Description
			Price:       *req.Price,              // Unit price
			Quantity:    *req.Quantity,           // Initial stock
			SellerID:    middleware.Caller(c).ID, // Owner is the caller
			CategoryID:  req.CategoryID,          // Category
			Image:       req.Image,               // Image reference
		}
		if err := s.CreateProduct(c.Request.Context(), product); err != nil {
			writeError(c, err) // Unexpected store error
			return
		}
		logrus.WithFields(logrus.Fields{
			"product_id": product.ID,       // New product
			"seller_id":  product.SellerID, // Owner
		}).Info("Product created")
		c.JSON(http.StatusCreated, gin.H{"product": product})
	}
}

// ListProductsHandler lists products, newest first, narrowed by the seller
// or category in the route when present
func ListProductsHandler(s store.Querier) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := store.ProductFilter{
			SellerID:   c.Param("userId"),     // Set on /products/user/:userId
			CategoryID: c.Param("categoryId"), // Set on /products/category/:categoryId
		}
		products, err := s.ListProducts(c.Request.Context(), filter)
		if err != nil {
			writeError(c, err) // Unexpected store error
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products}) // Empty list when none
	}
}

// GetProductHandler returns one product
func GetProductHandler(s store.Querier) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := s.GetProduct(c.Request.Context(), c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			writeError(c, err) // Unexpected store error
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}

// DeleteProductHandler removes a product. Past orders keep their snapshots.
func DeleteProductHandler(s store.Querier) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context() // Request scoped context
		id := c.Param("id")        // Product to delete
		product, err := s.GetProduct(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			writeError(c, err) // Unexpected store error
			return
		}
		// Only the owning seller or an admin may delete
		if !middleware.Caller(c).CanActFor(product.SellerID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this product"})
			return
		}
		if err := s.DeleteProduct(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			writeError(c, err) // Unexpected store error
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
