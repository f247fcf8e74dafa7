package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignMetricSample is one performance snapshot for a campaign.
// Samples are append-only; retention keeps the most recent N per campaign.
type CampaignMetricSample struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	CampaignID string `gorm:"type:varchar(100);not null;index"`

	ACOS           float64 `gorm:"not null"`
	TACOS          float64 `gorm:"not null"`
	Margin         float64 `gorm:"not null"`
	CPC            float64 `gorm:"not null"`
	CTR            float64 `gorm:"not null"`
	ConversionRate float64 `gorm:"not null"`

	Impressions int64 `gorm:"not null"`
	Clicks      int64 `gorm:"not null"`
	Conversions int64 `gorm:"not null"`

	Spend   decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Revenue decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	CollectedAt time.Time `gorm:"type:timestamptz;not null;index"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (CampaignMetricSample) TableName() string {
	return "campaign_metric_samples"
}
