package engine

import (
	"encoding/json"
	"math"
	"testing"

	"adpilot/internal/errs"
	"adpilot/internal/models"
)

func TestEvaluate_CostMetricTriggersAboveThreshold(t *testing.T) {
	sample := models.CampaignMetricSample{CampaignID: "c1", ACOS: 0.30}
	rules := []models.CampaignRule{
		{CampaignID: "c1", MetricKind: models.MetricACOS, Threshold: 0.25, ActionKind: models.ActionKindPause, Active: true},
	}
	actions := Evaluate("c1", sample, rules)
	if len(actions) != 1 {
		t.Fatalf("actions=%d want=1", len(actions))
	}
	a := actions[0]
	if a.ActionKind != models.ActionKindPause {
		t.Fatalf("action_kind=%s want=pause", a.ActionKind)
	}
	if !a.RequiresApproval {
		t.Fatalf("rule engine actions must require approval")
	}
	if a.Source != models.ActionSourceRuleEngine {
		t.Fatalf("source=%s want=rule_engine", a.Source)
	}
	// 0.7 + 0.2*0.05/0.25 = 0.74
	if math.Abs(a.Confidence-0.74) > 1e-9 {
		t.Fatalf("confidence=%f want=0.74", a.Confidence)
	}
	var params map[string]any
	if err := json.Unmarshal(a.Params, &params); err != nil {
		t.Fatalf("params unmarshal: %v", err)
	}
	if params["status"] != models.CampaignStatusPaused {
		t.Fatalf("params=%v want status=paused", params)
	}
}

func TestEvaluate_LowMetricTriggersBelowThreshold(t *testing.T) {
	sample := models.CampaignMetricSample{CampaignID: "c1", Margin: 0.10}
	rules := []models.CampaignRule{
		{CampaignID: "c1", MetricKind: models.MetricMargin, Threshold: 0.15, ActionKind: models.ActionKindAdjustBid, Active: true},
	}
	actions := Evaluate("c1", sample, rules)
	if len(actions) != 1 {
		t.Fatalf("actions=%d want=1", len(actions))
	}
	var params map[string]float64
	if err := json.Unmarshal(actions[0].Params, &params); err != nil {
		t.Fatalf("params unmarshal: %v", err)
	}
	if params["bid_delta_pct"] != 5 {
		t.Fatalf("bid_delta_pct=%f want=5", params["bid_delta_pct"])
	}
}

func TestEvaluate_CostBreachSuggestsBidCut(t *testing.T) {
	sample := models.CampaignMetricSample{CampaignID: "c1", TACOS: 0.40}
	rules := []models.CampaignRule{
		{CampaignID: "c1", MetricKind: models.MetricTACOS, Threshold: 0.20, ActionKind: models.ActionKindAdjustBid, Active: true},
	}
	actions := Evaluate("c1", sample, rules)
	if len(actions) != 1 {
		t.Fatalf("actions=%d want=1", len(actions))
	}
	var params map[string]float64
	if err := json.Unmarshal(actions[0].Params, &params); err != nil {
		t.Fatalf("params unmarshal: %v", err)
	}
	if params["bid_delta_pct"] != -10 {
		t.Fatalf("bid_delta_pct=%f want=-10", params["bid_delta_pct"])
	}
}

func TestEvaluate_EqualityDoesNotTrigger(t *testing.T) {
	sample := models.CampaignMetricSample{CampaignID: "c1", ACOS: 0.25, Margin: 0.15}
	rules := []models.CampaignRule{
		{CampaignID: "c1", MetricKind: models.MetricACOS, Threshold: 0.25, ActionKind: models.ActionKindPause, Active: true},
		{CampaignID: "c1", MetricKind: models.MetricMargin, Threshold: 0.15, ActionKind: models.ActionKindAdjustBid, Active: true},
	}
	if actions := Evaluate("c1", sample, rules); len(actions) != 0 {
		t.Fatalf("actions=%d want=0", len(actions))
	}
}

func sampleWith(kind string, value float64) models.CampaignMetricSample {
	s := models.CampaignMetricSample{CampaignID: "c1"}
	switch kind {
	case models.MetricACOS:
		s.ACOS = value
	case models.MetricTACOS:
		s.TACOS = value
	case models.MetricMargin:
		s.Margin = value
	case models.MetricCPC:
		s.CPC = value
	case models.MetricCTR:
		s.CTR = value
	case models.MetricConversionRate:
		s.ConversionRate = value
	}
	return s
}

func TestEvaluate_TriggerDirectionPerMetricKind(t *testing.T) {
	costMetrics := map[string]bool{
		models.MetricACOS:  true,
		models.MetricTACOS: true,
	}
	kinds := []string{
		models.MetricACOS,
		models.MetricTACOS,
		models.MetricMargin,
		models.MetricCPC,
		models.MetricCTR,
		models.MetricConversionRate,
	}
	const threshold = 0.25
	for _, kind := range kinds {
		rules := []models.CampaignRule{
			{CampaignID: "c1", MetricKind: kind, Threshold: threshold, ActionKind: models.ActionKindPause, Active: true},
		}
		cases := []struct {
			name    string
			value   float64
			trigger bool
		}{
			{"above", threshold + 0.05, costMetrics[kind]},
			{"below", threshold - 0.05, !costMetrics[kind]},
			{"equal", threshold, false},
		}
		for _, tc := range cases {
			actions := Evaluate("c1", sampleWith(kind, tc.value), rules)
			if got := len(actions) == 1; got != tc.trigger {
				t.Fatalf("%s %s value=%f: triggered=%v want=%v", kind, tc.name, tc.value, got, tc.trigger)
			}
		}
	}
}

func TestEvaluate_SkipsInactiveAndForeignRules(t *testing.T) {
	sample := models.CampaignMetricSample{CampaignID: "c1", ACOS: 0.90}
	rules := []models.CampaignRule{
		{CampaignID: "c1", MetricKind: models.MetricACOS, Threshold: 0.25, ActionKind: models.ActionKindPause, Active: false},
		{CampaignID: "c2", MetricKind: models.MetricACOS, Threshold: 0.25, ActionKind: models.ActionKindPause, Active: true},
	}
	if actions := Evaluate("c1", sample, rules); len(actions) != 0 {
		t.Fatalf("actions=%d want=0", len(actions))
	}
}

func TestConfidence_GrowsWithBreachAndIsCapped(t *testing.T) {
	small := confidence(0.26, 0.25)
	large := confidence(0.50, 0.25)
	if small >= large {
		t.Fatalf("confidence should grow with the breach: small=%f large=%f", small, large)
	}
	if capped := confidence(5.0, 0.25); capped != 0.95 {
		t.Fatalf("confidence=%f want cap 0.95", capped)
	}
}

func TestValidateRule(t *testing.T) {
	valid := &models.CampaignRule{MetricKind: models.MetricACOS, Threshold: 0.25, ActionKind: models.ActionKindPause}
	if err := ValidateRule(valid); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}

	cases := []struct {
		name string
		rule models.CampaignRule
	}{
		{"zero threshold", models.CampaignRule{MetricKind: models.MetricACOS, Threshold: 0, ActionKind: models.ActionKindPause}},
		{"negative threshold", models.CampaignRule{MetricKind: models.MetricACOS, Threshold: -1, ActionKind: models.ActionKindPause}},
		{"unknown metric", models.CampaignRule{MetricKind: "roas", Threshold: 0.25, ActionKind: models.ActionKindPause}},
		{"unknown action", models.CampaignRule{MetricKind: models.MetricACOS, Threshold: 0.25, ActionKind: "archive"}},
	}
	for _, tc := range cases {
		rule := tc.rule
		err := ValidateRule(&rule)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if _, ok := err.(*errs.ConfigurationError); !ok {
			t.Fatalf("%s: err=%T want *errs.ConfigurationError", tc.name, err)
		}
	}
}
