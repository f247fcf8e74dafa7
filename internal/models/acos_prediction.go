package models

import (
	"time"

	"gorm.io/datatypes"
)

// Prediction sources.
const (
	PredictionSourceLocal    = "local"
	PredictionSourceExternal = "external"
)

// ACOSPrediction is an advisory forecast of a campaign's cost of sales.
// It informs human approval and never drives actions by itself.
type ACOSPrediction struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	CampaignID string `gorm:"type:varchar(100);not null;index"`

	PredictedACOS float64 `gorm:"not null"`
	CIMin         float64 `gorm:"not null"`
	CIMax         float64 `gorm:"not null"`

	Factors        datatypes.JSON `gorm:"type:jsonb"`
	Recommendation string         `gorm:"type:text;not null"`
	Source         string         `gorm:"type:varchar(20);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (ACOSPrediction) TableName() string {
	return "acos_predictions"
}
