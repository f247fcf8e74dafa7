package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"adpilot/internal/models"
	"adpilot/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- campaigns --------------------------------------------------------------

func (s *Store) UpsertCampaign(ctx context.Context, item *models.Campaign) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.ID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"status",
			"marketplace",
			"daily_budget",
			"last_sync_at",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetCampaignByID(ctx context.Context, id string) (*models.Campaign, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Campaign
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListCampaigns(ctx context.Context, params repository.ListCampaignsParams) ([]models.Campaign, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyCampaignFilters(s.db.WithContext(ctx).Model(&models.Campaign{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.Campaign
	if err := query.Limit(normalizeLimit(params.Limit, 200)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountCampaigns(ctx context.Context, params repository.ListCampaignsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := applyCampaignFilters(s.db.WithContext(ctx).Model(&models.Campaign{}), params).Count(&total).Error
	return total, err
}

func (s *Store) UpdateCampaignStatus(ctx context.Context, id string, status string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func applyCampaignFilters(query *gorm.DB, params repository.ListCampaignsParams) *gorm.DB {
	if status := strings.TrimSpace(params.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if marketplace := strings.TrimSpace(params.Marketplace); marketplace != "" {
		query = query.Where("marketplace = ?", marketplace)
	}
	return query
}

// --- rules ------------------------------------------------------------------

func (s *Store) InsertRule(ctx context.Context, item *models.CampaignRule) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetRuleByID(ctx context.Context, id string) (*models.CampaignRule, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.CampaignRule
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListRulesByCampaign(ctx context.Context, campaignID string, activeOnly bool) ([]models.CampaignRule, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.CampaignRule{}).Where("campaign_id = ?", campaignID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var items []models.CampaignRule
	if err := query.Order("created_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SetRuleActive(ctx context.Context, id string, active bool) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.CampaignRule{}).
		Where("id = ?", id).
		Updates(map[string]any{"active": active, "updated_at": time.Now().UTC()}).Error
}

// --- schedules --------------------------------------------------------------

func (s *Store) InsertSchedule(ctx context.Context, item *models.CampaignSchedule) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetScheduleByID(ctx context.Context, id string) (*models.CampaignSchedule, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.CampaignSchedule
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSchedulesByCampaign(ctx context.Context, campaignID string, activeOnly bool) ([]models.CampaignSchedule, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.CampaignSchedule{}).Where("campaign_id = ?", campaignID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var items []models.CampaignSchedule
	if err := query.Order("day_of_week asc, start_hour asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListActiveSchedules(ctx context.Context) ([]models.CampaignSchedule, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.CampaignSchedule
	if err := s.db.WithContext(ctx).
		Model(&models.CampaignSchedule{}).
		Where("active = ?", true).
		Order("campaign_id asc, day_of_week asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SetScheduleActive(ctx context.Context, id string, active bool) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.CampaignSchedule{}).
		Where("id = ?", id).
		Update("active", active).Error
}

// --- metric samples ---------------------------------------------------------

func (s *Store) InsertMetricSample(ctx context.Context, item *models.CampaignMetricSample) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListRecentMetricSamples(ctx context.Context, campaignID string, limit int) ([]models.CampaignMetricSample, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.CampaignMetricSample
	if err := s.db.WithContext(ctx).
		Model(&models.CampaignMetricSample{}).
		Where("campaign_id = ?", campaignID).
		Order("collected_at desc").
		Limit(normalizeLimit(limit, 50)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) PruneMetricSamples(ctx context.Context, campaignID string, keep int) (int64, error) {
	if s == nil || s.db == nil || keep <= 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Exec(`
		DELETE FROM campaign_metric_samples
		WHERE campaign_id = ?
		AND id NOT IN (
			SELECT id FROM campaign_metric_samples
			WHERE campaign_id = ?
			ORDER BY collected_at DESC
			LIMIT ?
		)`, campaignID, campaignID, keep)
	return res.RowsAffected, res.Error
}

// --- automation actions -----------------------------------------------------

func (s *Store) InsertAction(ctx context.Context, item *models.AutomationAction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetActionByID(ctx context.Context, id string) (*models.AutomationAction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.AutomationAction
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListActions(ctx context.Context, params repository.ListActionsParams) ([]models.AutomationAction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyActionFilters(s.db.WithContext(ctx).Model(&models.AutomationAction{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.AutomationAction
	if err := query.Limit(normalizeLimit(params.Limit, 200)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountActions(ctx context.Context, params repository.ListActionsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := applyActionFilters(s.db.WithContext(ctx).Model(&models.AutomationAction{}), params).Count(&total).Error
	return total, err
}

func (s *Store) UpdateActionStatus(ctx context.Context, id string, status string, updates map[string]any) error {
	if s == nil || s.db == nil {
		return nil
	}
	merged := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range updates {
		merged[k] = v
	}
	return s.db.WithContext(ctx).
		Model(&models.AutomationAction{}).
		Where("id = ?", id).
		Updates(merged).Error
}

func (s *Store) LatestActionByCampaign(ctx context.Context, campaignID string) (*models.AutomationAction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.AutomationAction
	err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func applyActionFilters(query *gorm.DB, params repository.ListActionsParams) *gorm.DB {
	if status := strings.TrimSpace(params.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if campaignID := strings.TrimSpace(params.CampaignID); campaignID != "" {
		query = query.Where("campaign_id = ?", campaignID)
	}
	if params.RequiresApproval != nil {
		query = query.Where("requires_approval = ?", *params.RequiresApproval)
	}
	if source := strings.TrimSpace(params.Source); source != "" {
		query = query.Where("source = ?", source)
	}
	return query
}

// --- predictions ------------------------------------------------------------

func (s *Store) InsertPrediction(ctx context.Context, item *models.ACOSPrediction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) LatestPredictionByCampaign(ctx context.Context, campaignID string) (*models.ACOSPrediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.ACOSPrediction
	err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- query helpers ----------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	col := strings.TrimSpace(orderBy)
	if col == "" {
		col = fallback
	}
	dir := "desc"
	if asc != nil && *asc {
		dir = "asc"
	}
	return query.Order(col + " " + dir)
}

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
