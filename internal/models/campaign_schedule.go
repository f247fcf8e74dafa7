package models

import "time"

// CampaignSchedule defines a weekly window during which the campaign should
// be running. Hours are inclusive on both ends: a window 9-18 covers 09:00
// through 18:59. Several schedules per campaign are evaluated independently.
type CampaignSchedule struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	CampaignID string `gorm:"type:varchar(100);not null;index"`
	DayOfWeek  int    `gorm:"not null"`
	StartHour  int    `gorm:"not null"`
	EndHour    int    `gorm:"not null"`

	// RequireApproval routes the resulting action through the approval
	// queue instead of auto-executing it (operator manual override).
	RequireApproval bool `gorm:"not null;default:false"`
	Active          bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (CampaignSchedule) TableName() string {
	return "campaign_schedules"
}
