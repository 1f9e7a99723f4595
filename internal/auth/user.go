package auth

import (
	"slices"
	"time"

	"github.com/lib/pq"
)

// User is the identity record, keyed by the external social handle.
type User struct {
	ID               string         `gorm:"primaryKey;type:varchar(36)" json:"userId"`
	FarcasterProfile string         `gorm:"uniqueIndex;not null" json:"farcasterProfile"`
	SelectedState    string         `gorm:"not null" json:"selectedState"`
	PremiumFeatures  pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"premiumFeatures"`
	CreatedAt        time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// HasFeature treats PremiumFeatures as a set.
func (u User) HasFeature(key string) bool {
	return slices.Contains(u.PremiumFeatures, key)
}
