// Package reconciler drives campaign state toward the operator's schedule.
// It only looks at the current clock and the desired windows, so a missed
// tick self-heals on the next run and repeated runs are idempotent.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"adpilot/internal/approval"
	"adpilot/internal/models"
	"adpilot/internal/repository"
)

// reconcileConfidence reflects that schedule mismatches are unambiguous.
const reconcileConfidence = 0.9

type Reconciler struct {
	repo          repository.Repository
	actions       *approval.Workflow
	logger        *zap.Logger
	campaignLimit int
}

func New(repo repository.Repository, actions *approval.Workflow, campaignLimit int, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if campaignLimit <= 0 {
		campaignLimit = 1000
	}
	return &Reconciler{
		repo:          repo,
		actions:       actions,
		logger:        logger,
		campaignLimit: campaignLimit,
	}
}

// RunOnce compares every campaign's status against its active schedules and
// submits corrective actions. Returns the number of actions submitted.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	campaigns, err := r.repo.ListCampaigns(ctx, repository.ListCampaignsParams{Limit: r.campaignLimit})
	if err != nil {
		return 0, err
	}
	statuses := make(map[string]string, len(campaigns))
	for _, campaign := range campaigns {
		statuses[campaign.ID] = campaign.Status
	}

	active, err := r.repo.ListActiveSchedules(ctx)
	if err != nil {
		return 0, err
	}
	schedules := make(map[string][]models.CampaignSchedule)
	for _, s := range active {
		schedules[s.CampaignID] = append(schedules[s.CampaignID], s)
	}

	proposed := Reconcile(time.Now().UTC(), statuses, schedules)
	submitted := 0
	for i := range proposed {
		if err := r.actions.Submit(ctx, &proposed[i]); err != nil {
			r.logger.Warn("reconcile action submission failed",
				zap.String("campaign_id", proposed[i].CampaignID), zap.Error(err))
			continue
		}
		submitted++
	}
	r.logger.Info("schedule reconciliation finished",
		zap.Int("campaigns", len(campaigns)),
		zap.Int("actions", submitted))
	return submitted, nil
}

// Reconcile computes the corrective actions for the given clock instant.
// Campaigns without schedules are left alone; a campaign with at least one
// schedule should be active exactly when some window covers now.
func Reconcile(now time.Time, statuses map[string]string, schedules map[string][]models.CampaignSchedule) []models.AutomationAction {
	ids := make([]string, 0, len(statuses))
	for id := range statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []models.AutomationAction
	for _, id := range ids {
		windows := schedules[id]
		if len(windows) == 0 {
			continue
		}
		matched := matchWindow(now, windows)
		isActive := statuses[id] == models.CampaignStatusActive
		if (matched != nil) == isActive {
			continue
		}

		var action models.AutomationAction
		if matched != nil {
			action = models.AutomationAction{
				CampaignID: id,
				ActionKind: models.ActionKindActivate,
				Reason: fmt.Sprintf("campaign is paused inside scheduled window %s %02d:00-%02d:59",
					strings.ToLower(time.Weekday(matched.DayOfWeek).String()), matched.StartHour, matched.EndHour),
				Params: statusParams(models.CampaignStatusActive),
			}
		} else {
			action = models.AutomationAction{
				CampaignID: id,
				ActionKind: models.ActionKindPause,
				Reason:     "campaign is active outside all scheduled windows",
				Params:     statusParams(models.CampaignStatusPaused),
			}
		}
		action.Confidence = reconcileConfidence
		action.RequiresApproval = anyRequiresApproval(windows)
		action.Source = models.ActionSourceReconciler
		out = append(out, action)
	}
	return out
}

// matchWindow returns the first schedule covering now. Hour bounds are
// inclusive on both ends: start_hour 9, end_hour 18 covers 09:00 through
// 18:59.
func matchWindow(now time.Time, schedules []models.CampaignSchedule) *models.CampaignSchedule {
	day := int(now.Weekday())
	hour := now.Hour()
	for i := range schedules {
		s := &schedules[i]
		if !s.Active || s.DayOfWeek != day {
			continue
		}
		if hour >= s.StartHour && hour <= s.EndHour {
			return s
		}
	}
	return nil
}

func anyRequiresApproval(schedules []models.CampaignSchedule) bool {
	for _, s := range schedules {
		if s.Active && s.RequireApproval {
			return true
		}
	}
	return false
}

func statusParams(status string) datatypes.JSON {
	raw, _ := json.Marshal(map[string]string{"status": status})
	return datatypes.JSON(raw)
}
