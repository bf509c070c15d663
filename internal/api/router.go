// Package api exposes the storefront over HTTP with gin.
package api

import (
	"storefront/internal/checkout"   // Purchase core
	"storefront/internal/domain"     // Roles
	"storefront/internal/history"    // Order history
	"storefront/internal/middleware" // Auth and logging middleware
	"storefront/internal/store"      // Store contract

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact decimal arithmetic
)

// Deps are the collaborators the handlers are built from
type Deps struct {
	Store           store.Store
	Validator       *checkout.Validator
	Committer       *checkout.Committer
	History         *history.Assembler
	JWTSecret       string
	StartingBalance decimal.Decimal
}

// NewRouter wires every route onto a new gin engine
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()                                    // Gin router instance
	r.Use(middleware.RequestLogger(), gin.Recovery()) // Log every request, survive panics

	// Public routes
	r.POST("/users/register", RegisterHandler(d.Store, d.StartingBalance)) // Registration endpoint
	r.POST("/users/login", LoginHandler(d.Store, d.JWTSecret))             // Login endpoint
	r.GET("/products", ListProductsHandler(d.Store))                       // Catalog
	r.GET("/products/category/:categoryId", ListProductsHandler(d.Store))  // Catalog by category
	r.GET("/products/:id", GetProductHandler(d.Store))                     // Product detail endpoint
	r.GET("/categories", ListCategoriesHandler(d.Store))                   // Category list

	// Authenticated routes
	authed := r.Group("")
	authed.Use(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.LoadCaller(d.Store))
	authed.GET("/users/me", MeHandler())                                     // Caller profile
	authed.POST("/cart/validate", ValidateCartHandler(d.Store, d.Validator)) // Advisory stock check
	authed.POST("/orders/commit", CommitHandler(d.Committer))                // Purchase
	authed.GET("/orders/user/:userId", ListOrdersHandler(d.History))         // Order history
	authed.GET("/orders/order/:orderId", GetOrderHandler(d.History))         // Single order
	authed.GET("/products/user/:userId", ListProductsHandler(d.Store))       // Products of one seller
	authed.DELETE("/products/:id", DeleteProductHandler(d.Store))            // Remove own product

	// Seller routes
	sellers := authed.Group("/products")
	sellers.Use(middleware.RequireRole(domain.RoleSeller, domain.RoleAdmin))
	sellers.POST("", CreateProductHandler(d.Store)) // Create product endpoint

	// Admin routes
	admins := authed.Group("/categories")
	admins.Use(middleware.AdminOnlyMiddleware())
	admins.POST("", CreateCategoryHandler(d.Store))       // Add category
	admins.DELETE("/:id", DeleteCategoryHandler(d.Store)) // Remove category

	return r
}
