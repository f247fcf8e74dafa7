package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"adpilot/internal/client/estimator"
	"adpilot/internal/errs"
	"adpilot/internal/models"
	"adpilot/internal/repository"
)

type stubRepo struct {
	repository.Repository
	campaigns map[string]*models.Campaign
	samples   []models.CampaignMetricSample
	saved     []*models.ACOSPrediction
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		campaigns: map[string]*models.Campaign{
			"c1": {ID: "c1", Status: models.CampaignStatusPaused},
		},
	}
}

func (s *stubRepo) GetCampaignByID(ctx context.Context, id string) (*models.Campaign, error) {
	return s.campaigns[id], nil
}

// Newest first, matching the real repository ordering.
func (s *stubRepo) ListRecentMetricSamples(ctx context.Context, campaignID string, limit int) ([]models.CampaignMetricSample, error) {
	if limit > len(s.samples) {
		limit = len(s.samples)
	}
	return s.samples[:limit], nil
}

func (s *stubRepo) InsertPrediction(ctx context.Context, item *models.ACOSPrediction) error {
	s.saved = append(s.saved, item)
	return nil
}

type stubEstimator struct {
	estimate *estimator.Estimate
	err      error
	calls    int
}

func (s *stubEstimator) EstimateACOS(ctx context.Context, campaignID string) (*estimator.Estimate, error) {
	s.calls++
	return s.estimate, s.err
}

// newestFirst wraps chronological acos values into repository order.
func newestFirst(acos ...float64) []models.CampaignMetricSample {
	out := make([]models.CampaignMetricSample, len(acos))
	for i, v := range acos {
		out[len(acos)-1-i] = models.CampaignMetricSample{CampaignID: "c1", ACOS: v}
	}
	return out
}

func TestPredict_ThinHistoryDelegatesVerbatim(t *testing.T) {
	repo := newStubRepo()
	repo.samples = newestFirst(0.20, 0.22, 0.21)
	est := &stubEstimator{estimate: &estimator.Estimate{
		PredictedACOS:  0.27,
		Min:            0.18,
		Max:            0.36,
		Factors:        []string{"category seasonality"},
		Recommendation: "hold until Q4",
	}}
	p := New(repo, est, 5, 10, nil)

	prediction, err := p.Predict(context.Background(), "c1")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if est.calls != 1 {
		t.Fatalf("estimator calls=%d want=1", est.calls)
	}
	if prediction.Source != models.PredictionSourceExternal {
		t.Fatalf("source=%s want=external", prediction.Source)
	}
	if prediction.PredictedACOS != 0.27 || prediction.CIMin != 0.18 || prediction.CIMax != 0.36 {
		t.Fatalf("prediction=%+v want estimator values untouched", prediction)
	}
	if prediction.Recommendation != "hold until Q4" {
		t.Fatalf("recommendation=%q want estimator text untouched", prediction.Recommendation)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("saved=%d want=1", len(repo.saved))
	}
}

func TestPredict_EnoughHistorySkipsEstimator(t *testing.T) {
	repo := newStubRepo()
	repo.samples = newestFirst(0.25, 0.25, 0.25, 0.25, 0.25)
	est := &stubEstimator{err: fmt.Errorf("should not be called")}
	p := New(repo, est, 5, 10, nil)

	prediction, err := p.Predict(context.Background(), "c1")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if est.calls != 0 {
		t.Fatalf("estimator calls=%d want=0", est.calls)
	}
	if prediction.Source != models.PredictionSourceLocal {
		t.Fatalf("source=%s want=local", prediction.Source)
	}
}

func TestPredict_FlatHistoryPredictsMean(t *testing.T) {
	repo := newStubRepo()
	repo.samples = newestFirst(0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25)
	p := New(repo, &stubEstimator{}, 5, 10, nil)

	prediction, err := p.Predict(context.Background(), "c1")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(prediction.PredictedACOS-0.25) > 1e-9 {
		t.Fatalf("predicted=%f want=0.25", prediction.PredictedACOS)
	}
	// Zero variance collapses the interval onto the point forecast.
	if math.Abs(prediction.CIMin-0.25) > 1e-9 || math.Abs(prediction.CIMax-0.25) > 1e-9 {
		t.Fatalf("ci=[%f,%f] want [0.25,0.25]", prediction.CIMin, prediction.CIMax)
	}
}

func TestPredict_RisingTrendRaisesForecast(t *testing.T) {
	repo := newStubRepo()
	repo.samples = newestFirst(0.10, 0.11, 0.12, 0.13, 0.14, 0.15, 0.16, 0.17, 0.18, 0.19)
	p := New(repo, &stubEstimator{}, 5, 10, nil)

	prediction, err := p.Predict(context.Background(), "c1")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	// mean 0.145 plus slope 0.01 per step.
	if math.Abs(prediction.PredictedACOS-0.155) > 1e-9 {
		t.Fatalf("predicted=%f want=0.155", prediction.PredictedACOS)
	}
}

func TestPredict_LowerBoundIsFloored(t *testing.T) {
	repo := newStubRepo()
	repo.samples = newestFirst(0.01, 0.11, 0.01, 0.11, 0.01)
	p := New(repo, &stubEstimator{}, 5, 10, nil)

	prediction, err := p.Predict(context.Background(), "c1")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if prediction.CIMin != 0.05 {
		t.Fatalf("ci_min=%f want floor 0.05", prediction.CIMin)
	}
}

func TestRecommendationTiers(t *testing.T) {
	cases := []struct {
		predicted float64
		want      string
	}{
		{0.10, "expected cost of sales is low; activation looks safe"},
		{0.25, "expected cost of sales is near target; monitor closely after activation"},
		{0.30, "expected cost of sales is high; optimize before activating"},
		{0.50, "expected cost of sales is high; optimize before activating"},
	}
	for _, tc := range cases {
		if got := recommendationFor(tc.predicted); got != tc.want {
			t.Fatalf("recommendationFor(%f)=%q want=%q", tc.predicted, got, tc.want)
		}
	}
}

func TestPredict_EstimatorFailure(t *testing.T) {
	repo := newStubRepo()
	est := &stubEstimator{err: fmt.Errorf("timeout")}
	p := New(repo, est, 5, 10, nil)

	_, err := p.Predict(context.Background(), "c1")
	var external *errs.ExternalCallError
	if !errors.As(err, &external) {
		t.Fatalf("err=%v want *errs.ExternalCallError", err)
	}
	if len(repo.saved) != 0 {
		t.Fatalf("failed prediction must not be stored, got %d", len(repo.saved))
	}
}

func TestPredict_UnknownCampaign(t *testing.T) {
	repo := newStubRepo()
	p := New(repo, &stubEstimator{}, 5, 10, nil)

	_, err := p.Predict(context.Background(), "missing")
	var notFound *errs.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err=%v want *errs.NotFoundError", err)
	}
}
