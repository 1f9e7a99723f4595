package guide

import (
	"time"

	"rightguard/internal/content"
)

// Guide is the legal rights guide for one (state, language) pair.
// The oldest row of a pair is canonical.
type Guide struct {
	ID        string           `gorm:"primaryKey;type:varchar(36)" json:"guideId"`
	State     string           `gorm:"not null" json:"state"`
	Language  content.Language `gorm:"type:varchar(8);not null" json:"language"`
	Title     string           `gorm:"not null" json:"title"`
	Content   string           `gorm:"type:text;not null" json:"content"`
	Script    string           `gorm:"type:text;not null" json:"script"`
	CreatedAt time.Time        `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time        `gorm:"not null" json:"updatedAt"`
}

func (Guide) TableName() string { return "legal_guides" }

// Draft is generated guide content before it gets an identity.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Script  string `json:"script"`
}
