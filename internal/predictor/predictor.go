// Package predictor forecasts a campaign's expected cost of sales. With
// enough local history it fits a trend over the recent window; thin
// histories fall back to the external estimation service and pass its
// answer through unchanged.
package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"adpilot/internal/client/estimator"
	"adpilot/internal/errs"
	"adpilot/internal/models"
	"adpilot/internal/repository"
)

const (
	ciZ      = 1.96
	minACOS  = 0.05
	flatEps  = 0.001
	tierLow  = 0.20
	tierHigh = 0.30
)

// EstimationService is the external fallback for campaigns with thin
// history.
type EstimationService interface {
	EstimateACOS(ctx context.Context, campaignID string) (*estimator.Estimate, error)
}

type Predictor struct {
	repo            repository.Repository
	estimator       EstimationService
	logger          *zap.Logger
	minLocalSamples int
	windowSize      int
}

func New(repo repository.Repository, est EstimationService, minLocalSamples, windowSize int, logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if minLocalSamples <= 0 {
		minLocalSamples = 5
	}
	if windowSize <= 0 {
		windowSize = 10
	}
	return &Predictor{
		repo:            repo,
		estimator:       est,
		logger:          logger,
		minLocalSamples: minLocalSamples,
		windowSize:      windowSize,
	}
}

// Predict builds, stores, and returns a fresh forecast for the campaign.
func (p *Predictor) Predict(ctx context.Context, campaignID string) (*models.ACOSPrediction, error) {
	campaign, err := p.repo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, &errs.NotFoundError{Kind: "campaign", ID: campaignID}
	}

	history, err := p.repo.ListRecentMetricSamples(ctx, campaignID, p.windowSize)
	if err != nil {
		return nil, err
	}

	var prediction *models.ACOSPrediction
	if len(history) < p.minLocalSamples {
		prediction, err = p.external(ctx, campaignID)
		if err != nil {
			return nil, err
		}
	} else {
		prediction = localForecast(campaignID, history)
	}

	prediction.ID = uuid.NewString()
	prediction.CreatedAt = time.Now().UTC()
	if err := p.repo.InsertPrediction(ctx, prediction); err != nil {
		return nil, err
	}
	p.logger.Info("prediction generated",
		zap.String("campaign_id", campaignID),
		zap.String("source", prediction.Source),
		zap.Float64("predicted_acos", prediction.PredictedACOS))
	return prediction, nil
}

// Latest returns the most recent stored forecast, or nil when none exists.
func (p *Predictor) Latest(ctx context.Context, campaignID string) (*models.ACOSPrediction, error) {
	return p.repo.LatestPredictionByCampaign(ctx, campaignID)
}

// RefreshOnce regenerates forecasts for every campaign. Individual
// failures are logged and skipped.
func (p *Predictor) RefreshOnce(ctx context.Context) error {
	campaigns, err := p.repo.ListCampaigns(ctx, repository.ListCampaignsParams{Limit: 1000})
	if err != nil {
		return err
	}
	for _, campaign := range campaigns {
		if _, err := p.Predict(ctx, campaign.ID); err != nil {
			p.logger.Warn("prediction refresh skipped",
				zap.String("campaign_id", campaign.ID), zap.Error(err))
		}
	}
	return nil
}

func (p *Predictor) external(ctx context.Context, campaignID string) (*models.ACOSPrediction, error) {
	est, err := p.estimator.EstimateACOS(ctx, campaignID)
	if err != nil {
		return nil, &errs.ExternalCallError{Service: "estimator", Err: err}
	}
	factors, _ := json.Marshal(est.Factors)
	return &models.ACOSPrediction{
		CampaignID:     campaignID,
		PredictedACOS:  est.PredictedACOS,
		CIMin:          est.Min,
		CIMax:          est.Max,
		Factors:        datatypes.JSON(factors),
		Recommendation: est.Recommendation,
		Source:         models.PredictionSourceExternal,
	}, nil
}

// localForecast fits mean plus linear trend over the recent window. The
// history argument arrives newest first, as the repository returns it.
func localForecast(campaignID string, history []models.CampaignMetricSample) *models.ACOSPrediction {
	// Chronological order for the trend fit.
	values := make([]float64, len(history))
	for i, sample := range history {
		values[len(history)-1-i] = sample.ACOS
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	slope := trendSlope(values)
	predicted := mean + slope
	sigma := stddev(values, mean)
	ciMin := math.Max(minACOS, predicted-ciZ*sigma)
	ciMax := predicted + ciZ*sigma

	factors, _ := json.Marshal([]string{
		fmt.Sprintf("fitted over %d recent samples", len(values)),
		trendLabel(slope),
	})
	return &models.ACOSPrediction{
		CampaignID:     campaignID,
		PredictedACOS:  predicted,
		CIMin:          ciMin,
		CIMax:          ciMax,
		Factors:        datatypes.JSON(factors),
		Recommendation: recommendationFor(predicted),
		Source:         models.PredictionSourceLocal,
	}
}

// trendSlope is the least-squares slope of values against their index.
func trendSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func stddev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func trendLabel(slope float64) string {
	switch {
	case slope > flatEps:
		return "rising acos trend"
	case slope < -flatEps:
		return "falling acos trend"
	default:
		return "flat acos trend"
	}
}

func recommendationFor(predicted float64) string {
	switch {
	case predicted < tierLow:
		return "expected cost of sales is low; activation looks safe"
	case predicted < tierHigh:
		return "expected cost of sales is near target; monitor closely after activation"
	default:
		return "expected cost of sales is high; optimize before activating"
	}
}
