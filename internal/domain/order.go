package domain

import (
	"time" // Timestamps

	"github.com/google/uuid"        // UUID generation
	"github.com/shopspring/decimal" // Exact decimal arithmetic
)

// Order status values
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

// Payment status values
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Order Model. Orders are written once by the purchase commit and never
// updated afterwards.
type Order struct {
	ID            string          `gorm:"primaryKey;size:36" json:"_id"`                                 // Primary key (UUID)
	BuyerID       string          `gorm:"size:36;not null;index:idx_orders_buyer_created" json:"userId"` // Buyer
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`                      // Amount debited from the buyer
	Status        string          `gorm:"size:16;not null" json:"status"`                                // Order status
	PaymentStatus string          `gorm:"size:16;not null" json:"paymentStatus"`                         // Payment status
	Lines         []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"cart"`
	CreatedAt     time.Time       `gorm:"index:idx_orders_buyer_created" json:"createdAt"` // Ordered-at timestamp
}

// OrderLine snapshots the product as it was at commit time. ProductID is a
// soft reference: the product may since have been edited or deleted.
type OrderLine struct {
	ID        string          `gorm:"primaryKey;size:36" json:"_id"`
	OrderID   string          `gorm:"size:36;not null;index" json:"-"`
	Position  int             `gorm:"not null" json:"-"` // Cart position, keeps lines in submission order
	ProductID string          `gorm:"size:36;not null" json:"productId"`
	Name      string          `gorm:"size:200;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Image     string          `gorm:"size:500" json:"image"`
}

// Subtotal is price times quantity for the line
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewID returns a fresh identifier for users, products, orders and lines
func NewID() string {
	return uuid.NewString()
}
