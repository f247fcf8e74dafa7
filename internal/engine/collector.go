package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"adpilot/internal/approval"
	"adpilot/internal/client/marketplace"
	"adpilot/internal/errs"
	"adpilot/internal/models"
	"adpilot/internal/repository"
)

// MetricsSource fetches a campaign's current performance report.
type MetricsSource interface {
	FetchMetrics(ctx context.Context, campaignID string) (*marketplace.MetricsSnapshot, error)
}

// Collector pulls metrics for every known campaign, stores the sample, and
// runs the rule engine on it. Proposed actions go through the approval
// workflow.
type Collector struct {
	repo         repository.Repository
	metrics      MetricsSource
	actions      *approval.Workflow
	logger       *zap.Logger
	historyLimit int
}

func NewCollector(repo repository.Repository, metrics MetricsSource, actions *approval.Workflow, historyLimit int, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &Collector{
		repo:         repo,
		metrics:      metrics,
		actions:      actions,
		logger:       logger,
		historyLimit: historyLimit,
	}
}

// CollectOnce sweeps all campaigns. A failing campaign is logged and
// skipped so one flaky marketplace call cannot starve the rest.
func (c *Collector) CollectOnce(ctx context.Context) error {
	campaigns, err := c.repo.ListCampaigns(ctx, repository.ListCampaignsParams{Limit: 1000})
	if err != nil {
		return err
	}
	for _, campaign := range campaigns {
		if _, _, err := c.CollectCampaign(ctx, campaign.ID); err != nil {
			c.logger.Warn("metrics collection skipped",
				zap.String("campaign_id", campaign.ID), zap.Error(err))
		}
	}
	return nil
}

// CollectCampaign fetches, stores, and evaluates one campaign's metrics.
// It returns the stored sample and any actions submitted for it.
func (c *Collector) CollectCampaign(ctx context.Context, campaignID string) (*models.CampaignMetricSample, []models.AutomationAction, error) {
	campaign, err := c.repo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	if campaign == nil {
		return nil, nil, &errs.NotFoundError{Kind: "campaign", ID: campaignID}
	}

	snap, err := c.metrics.FetchMetrics(ctx, campaignID)
	if err != nil {
		return nil, nil, &errs.ExternalCallError{Service: "marketplace", Err: err}
	}

	sample := models.CampaignMetricSample{
		CampaignID:     campaignID,
		ACOS:           snap.ACOS,
		TACOS:          snap.TACOS,
		Margin:         snap.Margin,
		CPC:            snap.CPC,
		CTR:            snap.CTR,
		ConversionRate: snap.ConversionRate,
		Impressions:    snap.Impressions,
		Clicks:         snap.Clicks,
		Conversions:    snap.Conversions,
		Spend:          snap.Spend,
		Revenue:        snap.Revenue,
		CollectedAt:    time.Now().UTC(),
	}
	if err := c.repo.InsertMetricSample(ctx, &sample); err != nil {
		return nil, nil, err
	}
	if _, err := c.repo.PruneMetricSamples(ctx, campaignID, c.historyLimit); err != nil {
		c.logger.Warn("metric history pruning failed",
			zap.String("campaign_id", campaignID), zap.Error(err))
	}

	rules, err := c.repo.ListRulesByCampaign(ctx, campaignID, true)
	if err != nil {
		return &sample, nil, err
	}
	proposed := Evaluate(campaignID, sample, rules)
	submitted := make([]models.AutomationAction, 0, len(proposed))
	for i := range proposed {
		if err := c.actions.Submit(ctx, &proposed[i]); err != nil {
			c.logger.Warn("action submission failed",
				zap.String("campaign_id", campaignID),
				zap.String("action_kind", proposed[i].ActionKind),
				zap.Error(err))
			continue
		}
		submitted = append(submitted, proposed[i])
	}
	c.logger.Info("metrics collected",
		zap.String("campaign_id", campaignID),
		zap.Float64("acos", sample.ACOS),
		zap.Int("actions", len(submitted)))
	return &sample, submitted, nil
}
