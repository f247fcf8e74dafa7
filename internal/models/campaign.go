package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign status values as reported by the marketplace.
const (
	CampaignStatusActive = "active"
	CampaignStatusPaused = "paused"
)

// Campaign is a marketplace advertising campaign under automation.
// The ID is assigned by the marketplace, not by this service.
type Campaign struct {
	ID          string          `gorm:"type:varchar(100);primaryKey"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Status      string          `gorm:"type:varchar(20);not null;index;default:'paused'"`
	Marketplace string          `gorm:"type:varchar(50);index"`
	DailyBudget decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	LastSyncAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt  time.Time  `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Campaign) TableName() string {
	return "campaigns"
}
