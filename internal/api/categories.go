package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strings"  // Name trimming

	"storefront/internal/domain" // Importing domain models
	"storefront/internal/store"  // Store contract

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// CreateCategoryRequest is the body of POST /categories
type CreateCategoryRequest struct {
	Name string `json:"catName" binding:"required"` // Category name
}

// ListCategoriesHandler returns every category
func ListCategoriesHandler(s store.Querier) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := s.ListCategories(c.Request.Context())
		if err != nil {
			writeError(c, err) // Unexpected store error
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": categories})
	}
}

// CreateCategoryHandler adds a category. Names are unique.
func CreateCategoryHandler(s store.Querier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err) // If binding fails, return bad request
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category name is required"})
			return
		}
		category := &domain.Category{Name: name}
		if err := s.CreateCategory(c.Request.Context(), category); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": "Category already exists"})
				return
			}
			writeError(c, err) // Unexpected store error
			return
		}
		logrus.WithFields(logrus.Fields{
			"category_id": category.ID,   // New category
			"name":        category.Name, // Display name
		}).Info("Category created")
		c.JSON(http.StatusCreated, gin.H{"category": category})
	}
}

// DeleteCategoryHandler removes a category. Products keep their reference.
func DeleteCategoryHandler(s store.Querier) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.DeleteCategory(c.Request.Context(), c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		if err != nil {
			writeError(c, err) // Unexpected store error
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
	}
}
