package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact decimal arithmetic for balances
)

// User roles
const (
	RoleBuyer  = "buyer"  // Can purchase
	RoleSeller = "seller" // Can purchase and manage own products
	RoleAdmin  = "admin"  // Can act for any user
)

// User Model
type User struct {
	ID             string          `gorm:"primaryKey;size:36" json:"_id"`                  // Primary key (UUID)
	UserName       string          `gorm:"size:100;not null" json:"userName"`              // Display name
	Email          string          `gorm:"uniqueIndex;size:191;not null" json:"email"`     // Unique email
	Password       string          `gorm:"size:100" json:"-"`                              // bcrypt hash
	LegacyPassword string          `gorm:"column:passwrd;size:100" json:"-"`               // Pre-migration hash, emptied by the migrate command
	Role           string          `gorm:"size:16;not null;default:buyer" json:"userType"` // Role: buyer, seller or admin
	Balance        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance"`     // Spendable balance, never negative
	CreatedAt      time.Time       `json:"createdAt"`                                      // Creation timestamp
	UpdatedAt      time.Time       `json:"updatedAt"`                                      // Last update timestamp
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanSell reports whether seller-only actions are visible to the user
func (u *User) CanSell() bool {
	return u != nil && (u.Role == RoleSeller || u.Role == RoleAdmin)
}

// CanActFor reports whether the user may read or act on userID's data
func (u *User) CanActFor(userID string) bool {
	return u != nil && (u.ID == userID || u.IsAdmin())
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	switch role {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}
