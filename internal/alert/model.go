package alert

import "time"

type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusSent, StatusDelivered, StatusFailed:
		return Status(s), true
	}
	return "", false
}

// Log is one delivery attempt to one recipient. IncidentRecordID is empty
// when the alert is not tied to a recording.
type Log struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"alertId"`
	UserID           string    `gorm:"type:varchar(36);not null" json:"userId"`
	IncidentRecordID string    `gorm:"type:varchar(36);not null;default:''" json:"incidentRecordId"`
	Recipient        string    `gorm:"not null" json:"recipient"`
	Timestamp        time.Time `gorm:"not null" json:"timestamp"`
	Status           Status    `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt        time.Time `gorm:"not null" json:"createdAt"`
}

func (Log) TableName() string { return "alert_logs" }

type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}
