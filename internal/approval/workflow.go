// Package approval owns the automation action lifecycle. Every proposed
// action enters through Submit and leaves through exactly one of the
// terminal statuses; illegal transitions surface as conflicts instead of
// silently overwriting state.
package approval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"adpilot/internal/errs"
	"adpilot/internal/models"
	"adpilot/internal/repository"
)

// ActionExecutor applies an approved action's side effect and records the
// terminal status on the action itself.
type ActionExecutor interface {
	Execute(ctx context.Context, action *models.AutomationAction) error
}

type Workflow struct {
	repo   repository.Repository
	exec   ActionExecutor
	logger *zap.Logger

	mu sync.Mutex
}

func NewWorkflow(repo repository.Repository, exec ActionExecutor, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{repo: repo, exec: exec, logger: logger}
}

// Submit persists a newly proposed action. Actions that do not require
// approval are born approved and executed immediately.
func (w *Workflow) Submit(ctx context.Context, action *models.AutomationAction) error {
	if action == nil {
		return fmt.Errorf("action is required")
	}
	campaign, err := w.repo.GetCampaignByID(ctx, action.CampaignID)
	if err != nil {
		return err
	}
	if campaign == nil {
		return &errs.NotFoundError{Kind: "campaign", ID: action.CampaignID}
	}

	now := time.Now().UTC()
	action.ID = uuid.NewString()
	action.CreatedAt = now
	action.UpdatedAt = now
	action.Status = models.ActionStatusPending
	if !action.RequiresApproval {
		action.Status = models.ActionStatusApproved
	}
	if err := w.repo.InsertAction(ctx, action); err != nil {
		return err
	}
	w.logger.Info("action submitted",
		zap.String("action_id", action.ID),
		zap.String("campaign_id", action.CampaignID),
		zap.String("action_kind", action.ActionKind),
		zap.String("source", action.Source),
		zap.Bool("requires_approval", action.RequiresApproval))

	if action.Status == models.ActionStatusApproved {
		if err := w.exec.Execute(ctx, action); err != nil {
			w.logger.Warn("auto-approved action failed",
				zap.String("action_id", action.ID), zap.Error(err))
		}
	}
	return nil
}

// Approve moves a pending action to approved and executes it. Execution
// failure is recorded on the action, not returned; the returned action
// carries the final status either way.
func (w *Workflow) Approve(ctx context.Context, actionID string) (*models.AutomationAction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	action, err := w.loadAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if !canTransition(action.Status, models.ActionStatusApproved) {
		return nil, &errs.ConflictError{ActionID: actionID, From: action.Status, To: models.ActionStatusApproved}
	}
	if err := w.repo.UpdateActionStatus(ctx, actionID, models.ActionStatusApproved, nil); err != nil {
		return nil, err
	}
	action.Status = models.ActionStatusApproved
	w.logger.Info("action approved", zap.String("action_id", actionID))

	if err := w.exec.Execute(ctx, action); err != nil {
		w.logger.Warn("approved action failed",
			zap.String("action_id", actionID), zap.Error(err))
	}
	return action, nil
}

// Reject moves a pending action to rejected with the operator's reason.
func (w *Workflow) Reject(ctx context.Context, actionID, reason string) (*models.AutomationAction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	action, err := w.loadAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if !canTransition(action.Status, models.ActionStatusRejected) {
		return nil, &errs.ConflictError{ActionID: actionID, From: action.Status, To: models.ActionStatusRejected}
	}
	updates := map[string]any{"reject_reason": reason}
	if err := w.repo.UpdateActionStatus(ctx, actionID, models.ActionStatusRejected, updates); err != nil {
		return nil, err
	}
	action.Status = models.ActionStatusRejected
	action.RejectReason = &reason
	w.logger.Info("action rejected",
		zap.String("action_id", actionID), zap.String("reason", reason))
	return action, nil
}

// PendingApprovals lists actions waiting on an operator, oldest first.
func (w *Workflow) PendingApprovals(ctx context.Context) ([]models.AutomationAction, error) {
	asc := true
	requires := true
	return w.repo.ListActions(ctx, repository.ListActionsParams{
		Status:           models.ActionStatusPending,
		RequiresApproval: &requires,
		OrderBy:          "created_at",
		Asc:              &asc,
	})
}

func (w *Workflow) loadAction(ctx context.Context, actionID string) (*models.AutomationAction, error) {
	action, err := w.repo.GetActionByID(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, &errs.NotFoundError{Kind: "action", ID: actionID}
	}
	return action, nil
}

func canTransition(from, to string) bool {
	switch from {
	case models.ActionStatusPending:
		return to == models.ActionStatusApproved || to == models.ActionStatusRejected
	case models.ActionStatusApproved:
		return to == models.ActionStatusExecuted || to == models.ActionStatusFailed
	default:
		return false
	}
}
