// Package api holds typed clients for the Right Guard HTTP API. They keep
// no state of their own.
package api

import "time"

type User struct {
	UserID           string    `json:"userId"`
	FarcasterProfile string    `json:"farcasterProfile"`
	SelectedState    string    `json:"selectedState"`
	PremiumFeatures  []string  `json:"premiumFeatures"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Guide struct {
	GuideID   string    `json:"guideId"`
	State     string    `json:"state"`
	Language  string    `json:"language"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Script    string    `json:"script"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

type IncidentRecord struct {
	RecordID     string    `json:"recordId"`
	UserID       string    `json:"userId"`
	Timestamp    time.Time `json:"timestamp"`
	Location     Location  `json:"location"`
	MediaURL     string    `json:"mediaUrl,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UploadFailed bool      `json:"uploadFailed,omitempty"`
}

type AlertLog struct {
	AlertID          string    `json:"alertId"`
	UserID           string    `json:"userId"`
	IncidentRecordID string    `json:"incidentRecordId"`
	Recipient        string    `json:"recipient"`
	Timestamp        time.Time `json:"timestamp"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}

type AlertSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type SendAlertResult struct {
	Alerts  []AlertLog   `json:"alerts"`
	Summary AlertSummary `json:"summary"`
}

type Feature struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

type PurchaseResult struct {
	User            User    `json:"user"`
	UnlockedFeature Feature `json:"unlockedFeature"`
}

type Entitlements struct {
	Unlocked  []Feature `json:"unlocked"`
	Available []Feature `json:"available"`
}

type Access struct {
	HasAccess bool     `json:"hasAccess"`
	Feature   *Feature `json:"feature"`
}
