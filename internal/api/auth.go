package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"storefront/internal/domain"     // Importing domain models
	"storefront/internal/middleware" // Caller lookup
	"storefront/internal/store"      // Store contract
	"storefront/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact decimal arithmetic
	"github.com/sirupsen/logrus"    // Logging library
	"golang.org/x/crypto/bcrypt"    // Password hashing
)

// Request and Response structs
type RegisterRequest struct {
	UserName string `json:"userName" binding:"required"`       // Display name must be provided
	Email    string `json:"email" binding:"required,email"`    // Email must be valid
	Password string `json:"password" binding:"required,min=8"` // Password of at least 8 characters
	UserType string `json:"userType"`                          // buyer (default) or seller
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  *domain.User `json:"user"`  // Logged in user
}

// RegisterHandler creates a buyer or seller account with the starting balance
func RegisterHandler(s store.Querier, startingBalance decimal.Decimal) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err) // If binding fails, return bad request
			return
		}
		role := req.UserType // Requested role
		if role == "" {
			role = domain.RoleBuyer // Default to buyer
		}
		// Admins are never self-registered
		if role != domain.RoleBuyer && role != domain.RoleSeller {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userType must be buyer or seller"})
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := &domain.User{
			UserName: strings.TrimSpace(req.UserName),               // Display name
			Email:    strings.ToLower(strings.TrimSpace(req.Email)), // Lowercase email to ensure uniqueness
			Password: string(hash),                                  // bcrypt hash
			Role:     role,                                          // buyer or seller
			Balance:  startingBalance,                               // Fixed starting balance
		}
		// Attempt to create the user in the store
		if err := s.CreateUser(c.Request.Context(), user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
				return
			}
			writeError(c, err) // Unexpected store error
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,   // New user ID
			"role":    user.Role, // Role
		}).Info("User registered")
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(s store.Querier, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err) // If binding fails, return bad request
			return
		}
		user, err := s.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
		if errors.Is(err, store.ErrNotFound) {
			// If user not found, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err != nil {
			writeError(c, err) // Unexpected store error
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
	}
}

// MeHandler returns the caller's profile with the current balance
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": middleware.Caller(c)})
	}
}
