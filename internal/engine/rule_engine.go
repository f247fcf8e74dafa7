// Package engine evaluates campaign metric samples against operator-defined
// threshold rules and proposes automation actions. Everything it emits is
// gated behind human approval; only the schedule reconciler may auto-approve.
package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"gorm.io/datatypes"

	"adpilot/internal/errs"
	"adpilot/internal/models"
)

const (
	baseConfidence = 0.70
	confidenceGain = 0.20
	maxConfidence  = 0.95
)

// Evaluate runs one metric sample through the campaign's rules and returns
// the triggered actions. Returned actions carry no ID or status; the
// approval workflow assigns those on submission.
func Evaluate(campaignID string, sample models.CampaignMetricSample, rules []models.CampaignRule) []models.AutomationAction {
	var out []models.AutomationAction
	for _, rule := range rules {
		if !rule.Active || rule.CampaignID != campaignID {
			continue
		}
		value, ok := metricValue(rule.MetricKind, sample)
		if !ok {
			continue
		}
		if !triggered(rule.MetricKind, value, rule.Threshold) {
			continue
		}
		out = append(out, models.AutomationAction{
			CampaignID:       campaignID,
			ActionKind:       rule.ActionKind,
			Reason:           triggerReason(rule.MetricKind, value, rule.Threshold),
			Params:           suggestedParams(rule.ActionKind, rule.MetricKind),
			Confidence:       confidence(value, rule.Threshold),
			RequiresApproval: true,
			Source:           models.ActionSourceRuleEngine,
		})
	}
	return out
}

// ValidateRule rejects malformed rules at creation time so evaluation never
// sees them.
func ValidateRule(rule *models.CampaignRule) error {
	if rule == nil {
		return &errs.ConfigurationError{Field: "rule", Reason: "missing"}
	}
	if !models.KnownMetricKind(rule.MetricKind) {
		return &errs.ConfigurationError{Field: "metric_kind", Reason: fmt.Sprintf("unknown metric %q", rule.MetricKind)}
	}
	if !models.KnownActionKind(rule.ActionKind) {
		return &errs.ConfigurationError{Field: "action_kind", Reason: fmt.Sprintf("unknown action %q", rule.ActionKind)}
	}
	if rule.Threshold <= 0 {
		return &errs.ConfigurationError{Field: "threshold", Reason: "must be positive"}
	}
	return nil
}

func metricValue(kind string, sample models.CampaignMetricSample) (float64, bool) {
	switch kind {
	case models.MetricACOS:
		return sample.ACOS, true
	case models.MetricTACOS:
		return sample.TACOS, true
	case models.MetricMargin:
		return sample.Margin, true
	case models.MetricCPC:
		return sample.CPC, true
	case models.MetricCTR:
		return sample.CTR, true
	case models.MetricConversionRate:
		return sample.ConversionRate, true
	}
	return 0, false
}

// Cost metrics trigger when the value climbs above the threshold; every
// other supported metric triggers when it falls below. Equality never
// triggers in either direction.
func triggered(kind string, value, threshold float64) bool {
	if isCostMetric(kind) {
		return value > threshold
	}
	return value < threshold
}

func isCostMetric(kind string) bool {
	return kind == models.MetricACOS || kind == models.MetricTACOS
}

// confidence grows with the relative size of the breach and is capped below
// 1.0 to always leave room for human judgment.
func confidence(value, threshold float64) float64 {
	c := baseConfidence + confidenceGain*math.Abs(value-threshold)/threshold
	return math.Min(maxConfidence, c)
}

func triggerReason(kind string, value, threshold float64) string {
	direction := "below"
	if isCostMetric(kind) {
		direction = "above"
	}
	return fmt.Sprintf("%s %.4f is %s threshold %.4f", kind, value, direction, threshold)
}

func suggestedParams(actionKind, metricKind string) datatypes.JSON {
	var params map[string]any
	switch actionKind {
	case models.ActionKindPause:
		params = map[string]any{"status": models.CampaignStatusPaused}
	case models.ActionKindActivate:
		params = map[string]any{"status": models.CampaignStatusActive}
	case models.ActionKindAdjustBid:
		// Cost breach means we pay too much: cut bids. Otherwise the
		// campaign underperforms on a lower-is-worse metric: nudge up.
		delta := 5.0
		if isCostMetric(metricKind) {
			delta = -10.0
		}
		params = map[string]any{"bid_delta_pct": delta}
	default:
		params = map[string]any{}
	}
	raw, _ := json.Marshal(params)
	return datatypes.JSON(raw)
}
