package domain

import "time"

// Category Model. Products reference a category by id.
type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`                // Primary key (UUID)
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"catName"` // Unique display name
	CreatedAt time.Time `json:"createdAt"`                                    // Creation timestamp
}
