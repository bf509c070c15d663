package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact decimal arithmetic
)

// Product Model
type Product struct {
	ID          string          `gorm:"primaryKey;size:36" json:"_id"`            // Primary key (UUID)
	Name        string          `gorm:"size:200;not null" json:"name"`            // Product name
	Description string          `gorm:"type:text" json:"description,omitempty"`   // Free-form description
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"` // Unit price, non-negative
	Quantity    int             `gorm:"not null;default:0" json:"quantity"`       // Units in stock, never negative
	SellerID    string          `gorm:"size:36;index" json:"userId"`              // Owning seller
	CategoryID  string          `gorm:"size:36;index" json:"category"`            // Category reference
	Image       string          `gorm:"size:500" json:"image"`                    // Image reference
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
