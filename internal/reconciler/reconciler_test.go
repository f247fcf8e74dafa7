package reconciler

import (
	"testing"
	"time"

	"adpilot/internal/models"
)

// 2025-03-04 is a Tuesday (weekday 2).
func tuesdayAt(hour int) time.Time {
	return time.Date(2025, 3, 4, hour, 0, 0, 0, time.UTC)
}

func window(day, start, end int, requireApproval bool) models.CampaignSchedule {
	return models.CampaignSchedule{
		CampaignID:      "c1",
		DayOfWeek:       day,
		StartHour:       start,
		EndHour:         end,
		RequireApproval: requireApproval,
		Active:          true,
	}
}

func TestReconcile_ActivatesPausedCampaignInsideWindow(t *testing.T) {
	statuses := map[string]string{"c1": models.CampaignStatusPaused}
	schedules := map[string][]models.CampaignSchedule{"c1": {window(2, 9, 18, false)}}

	actions := Reconcile(tuesdayAt(9), statuses, schedules)
	if len(actions) != 1 {
		t.Fatalf("actions=%d want=1", len(actions))
	}
	a := actions[0]
	if a.ActionKind != models.ActionKindActivate {
		t.Fatalf("action_kind=%s want=activate", a.ActionKind)
	}
	if a.Source != models.ActionSourceReconciler {
		t.Fatalf("source=%s want=reconciler", a.Source)
	}
	if a.Confidence != 0.9 {
		t.Fatalf("confidence=%f want=0.9", a.Confidence)
	}
	if a.RequiresApproval {
		t.Fatalf("reconciler actions auto-approve unless the schedule says otherwise")
	}
}

func TestReconcile_EndHourIsInclusive(t *testing.T) {
	statuses := map[string]string{"c1": models.CampaignStatusActive}
	schedules := map[string][]models.CampaignSchedule{"c1": {window(2, 9, 18, false)}}

	if actions := Reconcile(tuesdayAt(18), statuses, schedules); len(actions) != 0 {
		t.Fatalf("18:00 is inside the window, got %d actions", len(actions))
	}
	actions := Reconcile(tuesdayAt(19), statuses, schedules)
	if len(actions) != 1 || actions[0].ActionKind != models.ActionKindPause {
		t.Fatalf("19:00 should pause, got %+v", actions)
	}
}

func TestReconcile_MatchingStateIsIdempotent(t *testing.T) {
	schedules := map[string][]models.CampaignSchedule{"c1": {window(2, 9, 18, false)}}

	active := map[string]string{"c1": models.CampaignStatusActive}
	if actions := Reconcile(tuesdayAt(12), active, schedules); len(actions) != 0 {
		t.Fatalf("active inside window should produce no actions, got %d", len(actions))
	}
	paused := map[string]string{"c1": models.CampaignStatusPaused}
	if actions := Reconcile(tuesdayAt(3), paused, schedules); len(actions) != 0 {
		t.Fatalf("paused outside window should produce no actions, got %d", len(actions))
	}
}

func TestReconcile_CampaignWithoutSchedulesLeftAlone(t *testing.T) {
	statuses := map[string]string{"c1": models.CampaignStatusActive}
	if actions := Reconcile(tuesdayAt(3), statuses, nil); len(actions) != 0 {
		t.Fatalf("no schedules means no reconciliation, got %d actions", len(actions))
	}
}

func TestReconcile_AnyWindowKeepsCampaignActive(t *testing.T) {
	statuses := map[string]string{"c1": models.CampaignStatusActive}
	schedules := map[string][]models.CampaignSchedule{"c1": {
		window(2, 6, 8, false),
		window(2, 20, 22, false),
	}}

	actions := Reconcile(tuesdayAt(21), statuses, schedules)
	if len(actions) != 0 {
		t.Fatalf("21:00 matches the evening window, got %d actions", len(actions))
	}
	actions = Reconcile(tuesdayAt(12), statuses, schedules)
	if len(actions) != 1 || actions[0].ActionKind != models.ActionKindPause {
		t.Fatalf("12:00 matches no window, want pause, got %+v", actions)
	}
}

func TestReconcile_InactiveScheduleIgnored(t *testing.T) {
	disabled := window(2, 9, 18, false)
	disabled.Active = false
	statuses := map[string]string{"c1": models.CampaignStatusActive}
	schedules := map[string][]models.CampaignSchedule{"c1": {disabled}}

	actions := Reconcile(tuesdayAt(12), statuses, schedules)
	if len(actions) != 1 || actions[0].ActionKind != models.ActionKindPause {
		t.Fatalf("disabled window should not count, got %+v", actions)
	}
}

func TestReconcile_ScheduleCanDemandApproval(t *testing.T) {
	statuses := map[string]string{"c1": models.CampaignStatusPaused}
	schedules := map[string][]models.CampaignSchedule{"c1": {window(2, 9, 18, true)}}

	actions := Reconcile(tuesdayAt(9), statuses, schedules)
	if len(actions) != 1 {
		t.Fatalf("actions=%d want=1", len(actions))
	}
	if !actions[0].RequiresApproval {
		t.Fatalf("require_approval schedule must gate the corrective action")
	}
}

func TestReconcile_DeterministicOrder(t *testing.T) {
	statuses := map[string]string{
		"b": models.CampaignStatusPaused,
		"a": models.CampaignStatusPaused,
	}
	schedules := map[string][]models.CampaignSchedule{}
	for _, id := range []string{"a", "b"} {
		w := window(2, 9, 18, false)
		w.CampaignID = id
		schedules[id] = []models.CampaignSchedule{w}
	}
	actions := Reconcile(tuesdayAt(10), statuses, schedules)
	if len(actions) != 2 {
		t.Fatalf("actions=%d want=2", len(actions))
	}
	if actions[0].CampaignID != "a" || actions[1].CampaignID != "b" {
		t.Fatalf("want campaign order a,b got %s,%s", actions[0].CampaignID, actions[1].CampaignID)
	}
}
