package jobs

import "time"

const (
	TypeAlertReceipt = "ALERT_RECEIPT"

	StatusPending = "PENDING"
	StatusRunning = "RUNNING"
	StatusDone    = "DONE"
	StatusFailed  = "FAILED"
)

type Job struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID string `gorm:"type:varchar(36);index;not null"`

	Type    string `gorm:"type:text;not null"` // ALERT_RECEIPT
	Payload string `gorm:"type:text;not null"`

	RunAt  time.Time `gorm:"not null"`
	Status string    `gorm:"type:varchar(16);not null"` // PENDING/RUNNING/DONE/FAILED

	LockedBy *string
	LockedAt *time.Time

	LastError *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
