package repository

import (
	"context"

	"adpilot/internal/models"
)

// Repository is the storage boundary for the automation core. The core is
// agnostic to the backing store; any implementation with create/get/list/
// update-by-id semantics satisfies it.
type Repository interface {
	// Campaigns
	UpsertCampaign(ctx context.Context, item *models.Campaign) error
	GetCampaignByID(ctx context.Context, id string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, params ListCampaignsParams) ([]models.Campaign, error)
	CountCampaigns(ctx context.Context, params ListCampaignsParams) (int64, error)
	UpdateCampaignStatus(ctx context.Context, id string, status string) error

	// Threshold rules
	InsertRule(ctx context.Context, item *models.CampaignRule) error
	GetRuleByID(ctx context.Context, id string) (*models.CampaignRule, error)
	ListRulesByCampaign(ctx context.Context, campaignID string, activeOnly bool) ([]models.CampaignRule, error)
	SetRuleActive(ctx context.Context, id string, active bool) error

	// Schedules
	InsertSchedule(ctx context.Context, item *models.CampaignSchedule) error
	GetScheduleByID(ctx context.Context, id string) (*models.CampaignSchedule, error)
	ListSchedulesByCampaign(ctx context.Context, campaignID string, activeOnly bool) ([]models.CampaignSchedule, error)
	ListActiveSchedules(ctx context.Context) ([]models.CampaignSchedule, error)
	SetScheduleActive(ctx context.Context, id string, active bool) error

	// Metric samples (append-only, bounded per campaign)
	InsertMetricSample(ctx context.Context, item *models.CampaignMetricSample) error
	ListRecentMetricSamples(ctx context.Context, campaignID string, limit int) ([]models.CampaignMetricSample, error)
	PruneMetricSamples(ctx context.Context, campaignID string, keep int) (int64, error)

	// Automation actions (never deleted)
	InsertAction(ctx context.Context, item *models.AutomationAction) error
	GetActionByID(ctx context.Context, id string) (*models.AutomationAction, error)
	ListActions(ctx context.Context, params ListActionsParams) ([]models.AutomationAction, error)
	CountActions(ctx context.Context, params ListActionsParams) (int64, error)
	UpdateActionStatus(ctx context.Context, id string, status string, updates map[string]any) error
	LatestActionByCampaign(ctx context.Context, campaignID string) (*models.AutomationAction, error)

	// Predictions
	InsertPrediction(ctx context.Context, item *models.ACOSPrediction) error
	LatestPredictionByCampaign(ctx context.Context, campaignID string) (*models.ACOSPrediction, error)
}

// Empty string filters mean "no filter".
type ListCampaignsParams struct {
	Limit       int
	Offset      int
	Status      string
	Marketplace string
	OrderBy     string
	Asc         *bool
}

type ListActionsParams struct {
	Limit            int
	Offset           int
	Status           string
	CampaignID       string
	RequiresApproval *bool
	Source           string
	OrderBy          string
	Asc              *bool
}
