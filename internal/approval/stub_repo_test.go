package approval

import (
	"context"
	"sort"

	"adpilot/internal/models"
	"adpilot/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Only the methods the workflow touches carry real behavior.
type stubRepo struct {
	campaigns map[string]*models.Campaign
	actions   map[string]*models.AutomationAction
	inserted  []string
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		campaigns: map[string]*models.Campaign{},
		actions:   map[string]*models.AutomationAction{},
	}
}

func (s *stubRepo) UpsertCampaign(ctx context.Context, item *models.Campaign) error {
	s.campaigns[item.ID] = item
	return nil
}

func (s *stubRepo) GetCampaignByID(ctx context.Context, id string) (*models.Campaign, error) {
	return s.campaigns[id], nil
}

func (s *stubRepo) ListCampaigns(ctx context.Context, params repository.ListCampaignsParams) ([]models.Campaign, error) {
	return nil, nil
}

func (s *stubRepo) CountCampaigns(ctx context.Context, params repository.ListCampaignsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) UpdateCampaignStatus(ctx context.Context, id string, status string) error {
	if campaign, ok := s.campaigns[id]; ok {
		campaign.Status = status
	}
	return nil
}

func (s *stubRepo) InsertRule(ctx context.Context, item *models.CampaignRule) error { return nil }
func (s *stubRepo) GetRuleByID(ctx context.Context, id string) (*models.CampaignRule, error) {
	return nil, nil
}
func (s *stubRepo) ListRulesByCampaign(ctx context.Context, campaignID string, activeOnly bool) ([]models.CampaignRule, error) {
	return nil, nil
}
func (s *stubRepo) SetRuleActive(ctx context.Context, id string, active bool) error { return nil }

func (s *stubRepo) InsertSchedule(ctx context.Context, item *models.CampaignSchedule) error {
	return nil
}
func (s *stubRepo) GetScheduleByID(ctx context.Context, id string) (*models.CampaignSchedule, error) {
	return nil, nil
}
func (s *stubRepo) ListSchedulesByCampaign(ctx context.Context, campaignID string, activeOnly bool) ([]models.CampaignSchedule, error) {
	return nil, nil
}
func (s *stubRepo) ListActiveSchedules(ctx context.Context) ([]models.CampaignSchedule, error) {
	return nil, nil
}
func (s *stubRepo) SetScheduleActive(ctx context.Context, id string, active bool) error { return nil }

func (s *stubRepo) InsertMetricSample(ctx context.Context, item *models.CampaignMetricSample) error {
	return nil
}
func (s *stubRepo) ListRecentMetricSamples(ctx context.Context, campaignID string, limit int) ([]models.CampaignMetricSample, error) {
	return nil, nil
}
func (s *stubRepo) PruneMetricSamples(ctx context.Context, campaignID string, keep int) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertAction(ctx context.Context, item *models.AutomationAction) error {
	clone := *item
	s.actions[item.ID] = &clone
	s.inserted = append(s.inserted, item.ID)
	return nil
}

func (s *stubRepo) GetActionByID(ctx context.Context, id string) (*models.AutomationAction, error) {
	action, ok := s.actions[id]
	if !ok {
		return nil, nil
	}
	clone := *action
	return &clone, nil
}

func (s *stubRepo) ListActions(ctx context.Context, params repository.ListActionsParams) ([]models.AutomationAction, error) {
	var out []models.AutomationAction
	for _, id := range s.inserted {
		action := s.actions[id]
		if params.Status != "" && action.Status != params.Status {
			continue
		}
		if params.RequiresApproval != nil && action.RequiresApproval != *params.RequiresApproval {
			continue
		}
		out = append(out, *action)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *stubRepo) CountActions(ctx context.Context, params repository.ListActionsParams) (int64, error) {
	items, _ := s.ListActions(ctx, params)
	return int64(len(items)), nil
}

func (s *stubRepo) UpdateActionStatus(ctx context.Context, id string, status string, updates map[string]any) error {
	action, ok := s.actions[id]
	if !ok {
		return nil
	}
	action.Status = status
	if reason, ok := updates["reject_reason"].(string); ok {
		action.RejectReason = &reason
	}
	if msg, ok := updates["execution_error"].(string); ok {
		action.ExecutionError = &msg
	}
	return nil
}

func (s *stubRepo) LatestActionByCampaign(ctx context.Context, campaignID string) (*models.AutomationAction, error) {
	return nil, nil
}

func (s *stubRepo) InsertPrediction(ctx context.Context, item *models.ACOSPrediction) error {
	return nil
}
func (s *stubRepo) LatestPredictionByCampaign(ctx context.Context, campaignID string) (*models.ACOSPrediction, error) {
	return nil, nil
}
