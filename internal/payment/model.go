package payment

import "time"

// PurchaseLog is an append-only audit row written after a grant.
type PurchaseLog struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     string    `gorm:"type:varchar(36);not null" json:"userId"`
	FeatureKey string    `gorm:"not null" json:"featureKey"`
	Amount     float64   `gorm:"not null" json:"amount"`
	TxHash     string    `gorm:"not null" json:"txHash"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
}

func (PurchaseLog) TableName() string { return "purchase_logs" }
