package models

import (
	"time"

	"gorm.io/datatypes"
)

// Action lifecycle statuses.
const (
	ActionStatusPending  = "pending"
	ActionStatusApproved = "approved"
	ActionStatusRejected = "rejected"
	ActionStatusExecuted = "executed"
	ActionStatusFailed   = "failed"
)

// Action origins.
const (
	ActionSourceRuleEngine = "rule_engine"
	ActionSourceReconciler = "reconciler"
	ActionSourceOperator   = "operator"
)

// AutomationAction is a proposed (or applied) change to a campaign. Actions
// are never deleted; a fresh trigger on a later tick produces a new action
// rather than reviving an old one.
type AutomationAction struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	CampaignID string `gorm:"type:varchar(100);not null;index"`

	ActionKind string         `gorm:"type:varchar(30);not null"`
	Reason     string         `gorm:"type:text;not null"`
	Params     datatypes.JSON `gorm:"type:jsonb"`
	Confidence float64        `gorm:"not null"`

	RequiresApproval bool   `gorm:"not null;index"`
	Status           string `gorm:"type:varchar(20);not null;index;default:'pending'"`
	Source           string `gorm:"type:varchar(30);not null"`

	RejectReason   *string    `gorm:"type:text"`
	ExecutionError *string    `gorm:"type:text"`
	ExecutedAt     *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (AutomationAction) TableName() string {
	return "automation_actions"
}
