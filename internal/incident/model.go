package incident

import (
	"time"

	"rightguard/internal/geo"
)

// Record is one captured incident. Location is stored flat (latitude,
// longitude, address columns) and serialized nested.
type Record struct {
	ID        string       `gorm:"primaryKey;type:varchar(36)" json:"recordId"`
	UserID    string       `gorm:"type:varchar(36);not null" json:"userId"`
	Timestamp time.Time    `gorm:"not null" json:"timestamp"`
	Location  geo.Location `gorm:"embedded" json:"location"`
	MediaURL  string       `gorm:"type:text" json:"mediaUrl,omitempty"`
	Notes     string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"createdAt"`
}

func (Record) TableName() string { return "incident_records" }
