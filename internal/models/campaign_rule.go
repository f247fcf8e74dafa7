package models

import "time"

// Metric kinds a rule may watch.
const (
	MetricACOS           = "acos"
	MetricTACOS          = "tacos"
	MetricMargin         = "margin"
	MetricCPC            = "cpc"
	MetricCTR            = "ctr"
	MetricConversionRate = "conversion_rate"
)

// Action kinds a rule may request.
const (
	ActionKindActivate         = "activate"
	ActionKindPause            = "pause"
	ActionKindAdjustBid        = "adjust_bid"
	ActionKindOptimizeKeywords = "optimize_keywords"
)

// CampaignRule is an operator-defined threshold rule. Rules are immutable
// after creation except for the Active toggle.
type CampaignRule struct {
	ID         string  `gorm:"type:varchar(36);primaryKey"`
	CampaignID string  `gorm:"type:varchar(100);not null;index"`
	MetricKind string  `gorm:"type:varchar(30);not null"`
	Threshold  float64 `gorm:"not null"`
	ActionKind string  `gorm:"type:varchar(30);not null"`
	Active     bool    `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (CampaignRule) TableName() string {
	return "campaign_rules"
}

func KnownMetricKind(kind string) bool {
	switch kind {
	case MetricACOS, MetricTACOS, MetricMargin, MetricCPC, MetricCTR, MetricConversionRate:
		return true
	}
	return false
}

func KnownActionKind(kind string) bool {
	switch kind {
	case ActionKindActivate, ActionKindPause, ActionKindAdjustBid, ActionKindOptimizeKeywords:
		return true
	}
	return false
}
