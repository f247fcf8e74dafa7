// Package executor applies approved automation actions against the
// marketplace and records the terminal outcome. It performs no retries:
// a failed call lands the action in the failed status and retry policy
// belongs to the HTTP client or the operator.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"adpilot/internal/errs"
	"adpilot/internal/models"
	"adpilot/internal/repository"
)

const discountTimeout = 10 * time.Second

// ActionSink is the marketplace side of action execution.
type ActionSink interface {
	SetCampaignStatus(ctx context.Context, campaignID, status string) error
	AdjustBid(ctx context.Context, campaignID string, deltaPct float64) error
}

// DiscountService applies a listing discount after a campaign pause. It is
// best-effort: failures are logged and never affect the action outcome.
type DiscountService interface {
	ApplyDiscount(ctx context.Context, campaignID string, percent float64) error
}

type Executor struct {
	repo            repository.Repository
	sink            ActionSink
	discount        DiscountService
	logger          *zap.Logger
	discountPercent float64
}

func New(repo repository.Repository, sink ActionSink, discount DiscountService, discountPercent float64, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		repo:            repo,
		sink:            sink,
		discount:        discount,
		logger:          logger,
		discountPercent: discountPercent,
	}
}

// Execute applies one approved action. The action is mutated in place with
// the terminal status, which is also persisted before returning.
func (e *Executor) Execute(ctx context.Context, action *models.AutomationAction) error {
	if action == nil {
		return fmt.Errorf("action is required")
	}
	if action.Status != models.ActionStatusApproved {
		return &errs.ConflictError{ActionID: action.ID, From: action.Status, To: models.ActionStatusExecuted}
	}

	newCampaignStatus, err := e.apply(ctx, action)
	if err != nil {
		return e.recordFailure(ctx, action, err)
	}

	now := time.Now().UTC()
	updates := map[string]any{"executed_at": now}
	if err := e.repo.UpdateActionStatus(ctx, action.ID, models.ActionStatusExecuted, updates); err != nil {
		return err
	}
	action.Status = models.ActionStatusExecuted
	action.ExecutedAt = &now
	if newCampaignStatus != "" {
		if err := e.repo.UpdateCampaignStatus(ctx, action.CampaignID, newCampaignStatus); err != nil {
			e.logger.Warn("failed to record campaign status",
				zap.String("campaign_id", action.CampaignID), zap.Error(err))
		}
	}
	e.logger.Info("action executed",
		zap.String("action_id", action.ID),
		zap.String("campaign_id", action.CampaignID),
		zap.String("action_kind", action.ActionKind))

	if action.ActionKind == models.ActionKindPause && e.discount != nil {
		go e.applyPauseDiscount(action.CampaignID)
	}
	return nil
}

func (e *Executor) apply(ctx context.Context, action *models.AutomationAction) (string, error) {
	switch action.ActionKind {
	case models.ActionKindActivate:
		if err := e.sink.SetCampaignStatus(ctx, action.CampaignID, models.CampaignStatusActive); err != nil {
			return "", &errs.ExternalCallError{Service: "marketplace", Err: err}
		}
		return models.CampaignStatusActive, nil
	case models.ActionKindPause:
		if err := e.sink.SetCampaignStatus(ctx, action.CampaignID, models.CampaignStatusPaused); err != nil {
			return "", &errs.ExternalCallError{Service: "marketplace", Err: err}
		}
		return models.CampaignStatusPaused, nil
	case models.ActionKindAdjustBid:
		delta, err := bidDelta(action.Params)
		if err != nil {
			return "", err
		}
		if err := e.sink.AdjustBid(ctx, action.CampaignID, delta); err != nil {
			return "", &errs.ExternalCallError{Service: "marketplace", Err: err}
		}
		return "", nil
	case models.ActionKindOptimizeKeywords:
		// No marketplace endpoint for keyword optimization yet; executing
		// the action records the intent for the operator.
		e.logger.Info("keyword optimization requested",
			zap.String("campaign_id", action.CampaignID))
		return "", nil
	default:
		return "", &errs.ConfigurationError{Field: "action_kind", Reason: fmt.Sprintf("unsupported action %q", action.ActionKind)}
	}
}

func (e *Executor) recordFailure(ctx context.Context, action *models.AutomationAction, cause error) error {
	msg := cause.Error()
	updates := map[string]any{"execution_error": msg}
	if err := e.repo.UpdateActionStatus(ctx, action.ID, models.ActionStatusFailed, updates); err != nil {
		e.logger.Error("failed to record action failure",
			zap.String("action_id", action.ID), zap.Error(err))
	}
	action.Status = models.ActionStatusFailed
	action.ExecutionError = &msg
	return cause
}

// applyPauseDiscount runs detached from the triggering request so a slow
// discount service cannot block action execution.
func (e *Executor) applyPauseDiscount(campaignID string) {
	ctx, cancel := context.WithTimeout(context.Background(), discountTimeout)
	defer cancel()
	if err := e.discount.ApplyDiscount(ctx, campaignID, e.discountPercent); err != nil {
		e.logger.Warn("listing discount failed",
			zap.String("campaign_id", campaignID), zap.Error(err))
		return
	}
	e.logger.Info("listing discount applied",
		zap.String("campaign_id", campaignID),
		zap.Float64("percent", e.discountPercent))
}

func bidDelta(raw []byte) (float64, error) {
	var params struct {
		BidDeltaPct float64 `json:"bid_delta_pct"`
	}
	if len(raw) == 0 {
		return 0, &errs.ConfigurationError{Field: "params", Reason: "bid_delta_pct is required"}
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return 0, &errs.ConfigurationError{Field: "params", Reason: "malformed params payload"}
	}
	if params.BidDeltaPct == 0 {
		return 0, &errs.ConfigurationError{Field: "params", Reason: "bid_delta_pct is required"}
	}
	return params.BidDeltaPct, nil
}
