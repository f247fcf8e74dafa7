package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"adpilot/internal/engine"
	"adpilot/internal/errs"
	"adpilot/internal/models"
	"adpilot/internal/predictor"
	"adpilot/internal/repository"
)

type CampaignHandler struct {
	Repo      repository.Repository
	Collector *engine.Collector
	Predictor *predictor.Predictor
}

func (h *CampaignHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.GET("/campaigns", h.listCampaigns)
	group.POST("/campaigns", h.upsertCampaign)
	group.GET("/campaigns/:id/automation", h.automationOverview)
	group.POST("/campaigns/:id/rules", h.createRule)
	group.PUT("/rules/:id/active", h.setRuleActive)
	group.POST("/campaigns/:id/schedules", h.createSchedule)
	group.PUT("/schedules/:id/active", h.setScheduleActive)
	group.POST("/campaigns/:id/metrics/collect", h.collectMetrics)
	group.GET("/campaigns/:id/prediction", h.prediction)
}

// @Summary List campaigns
// @Tags campaigns
// @Param status query string false "filter by status"
// @Param marketplace query string false "filter by marketplace"
// @Success 200 {object} apiResponse
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) listCampaigns(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListCampaignsParams{
		Limit:       limit,
		Offset:      offset,
		Status:      strings.TrimSpace(c.Query("status")),
		Marketplace: strings.TrimSpace(c.Query("marketplace")),
	}
	items, err := h.Repo.ListCampaigns(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	total, err := h.Repo.CountCampaigns(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

type upsertCampaignRequest struct {
	ID          string          `json:"id" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Status      string          `json:"status"`
	Marketplace string          `json:"marketplace"`
	DailyBudget decimal.Decimal `json:"daily_budget"`
}

// @Summary Create or update a campaign
// @Tags campaigns
// @Success 200 {object} apiResponse
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) upsertCampaign(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req upsertCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = models.CampaignStatusPaused
	}
	if status != models.CampaignStatusActive && status != models.CampaignStatusPaused {
		Error(c, http.StatusBadRequest, "status must be active or paused", nil)
		return
	}
	campaign := models.Campaign{
		ID:          strings.TrimSpace(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Status:      status,
		Marketplace: strings.TrimSpace(req.Marketplace),
		DailyBudget: req.DailyBudget,
	}
	if err := h.Repo.UpsertCampaign(c.Request.Context(), &campaign); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, campaign, nil)
}

// @Summary Automation overview for one campaign
// @Tags campaigns
// @Success 200 {object} apiResponse
// @Router /api/v1/campaigns/{id}/automation [get]
func (h *CampaignHandler) automationOverview(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "id required", nil)
		return
	}
	ctx := c.Request.Context()
	campaign, err := h.Repo.GetCampaignByID(ctx, id)
	if err != nil {
		Fail(c, err)
		return
	}
	if campaign == nil {
		Error(c, http.StatusNotFound, "campaign not found", nil)
		return
	}
	rules, err := h.Repo.ListRulesByCampaign(ctx, id, false)
	if err != nil {
		Fail(c, err)
		return
	}
	schedules, err := h.Repo.ListSchedulesByCampaign(ctx, id, false)
	if err != nil {
		Fail(c, err)
		return
	}
	lastAction, err := h.Repo.LatestActionByCampaign(ctx, id)
	if err != nil {
		Fail(c, err)
		return
	}
	lastPrediction, err := h.Repo.LatestPredictionByCampaign(ctx, id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{
		"campaign":        campaign,
		"rules":           rules,
		"schedules":       schedules,
		"last_action":     lastAction,
		"last_prediction": lastPrediction,
	}, nil)
}

type createRuleRequest struct {
	MetricKind string  `json:"metric_kind" binding:"required"`
	Threshold  float64 `json:"threshold"`
	ActionKind string  `json:"action_kind" binding:"required"`
	Active     *bool   `json:"active"`
}

// @Summary Attach a threshold rule to a campaign
// @Tags rules
// @Success 200 {object} apiResponse
// @Router /api/v1/campaigns/{id}/rules [post]
func (h *CampaignHandler) createRule(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	campaignID := strings.TrimSpace(c.Param("id"))
	if campaignID == "" {
		Error(c, http.StatusBadRequest, "id required", nil)
		return
	}
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	ctx := c.Request.Context()
	campaign, err := h.Repo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		Fail(c, err)
		return
	}
	if campaign == nil {
		Error(c, http.StatusNotFound, "campaign not found", nil)
		return
	}
	rule := models.CampaignRule{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		MetricKind: strings.TrimSpace(req.MetricKind),
		Threshold:  req.Threshold,
		ActionKind: strings.TrimSpace(req.ActionKind),
		Active:     true,
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	if err := engine.ValidateRule(&rule); err != nil {
		Fail(c, err)
		return
	}
	if err := h.Repo.InsertRule(ctx, &rule); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, rule, nil)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// @Summary Enable or disable a rule
// @Tags rules
// @Success 200 {object} apiResponse
// @Router /api/v1/rules/{id}/active [put]
func (h *CampaignHandler) setRuleActive(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "id required", nil)
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	ctx := c.Request.Context()
	rule, err := h.Repo.GetRuleByID(ctx, id)
	if err != nil {
		Fail(c, err)
		return
	}
	if rule == nil {
		Error(c, http.StatusNotFound, "rule not found", nil)
		return
	}
	if err := h.Repo.SetRuleActive(ctx, id, *req.Active); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{"id": id, "active": *req.Active}, nil)
}

type createScheduleRequest struct {
	DayOfWeek       int   `json:"day_of_week"`
	StartHour       int   `json:"start_hour"`
	EndHour         int   `json:"end_hour"`
	RequireApproval bool  `json:"require_approval"`
	Active          *bool `json:"active"`
}

// @Summary Attach an activation window to a campaign
// @Tags schedules
// @Success 200 {object} apiResponse
// @Router /api/v1/campaigns/{id}/schedules [post]
func (h *CampaignHandler) createSchedule(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	campaignID := strings.TrimSpace(c.Param("id"))
	if campaignID == "" {
		Error(c, http.StatusBadRequest, "id required", nil)
		return
	}
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	if err := validateSchedule(req); err != nil {
		Fail(c, err)
		return
	}
	ctx := c.Request.Context()
	campaign, err := h.Repo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		Fail(c, err)
		return
	}
	if campaign == nil {
		Error(c, http.StatusNotFound, "campaign not found", nil)
		return
	}
	schedule := models.CampaignSchedule{
		ID:              uuid.NewString(),
		CampaignID:      campaignID,
		DayOfWeek:       req.DayOfWeek,
		StartHour:       req.StartHour,
		EndHour:         req.EndHour,
		RequireApproval: req.RequireApproval,
		Active:          true,
	}
	if req.Active != nil {
		schedule.Active = *req.Active
	}
	if err := h.Repo.InsertSchedule(ctx, &schedule); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, schedule, nil)
}

func validateSchedule(req createScheduleRequest) error {
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return &errs.ConfigurationError{Field: "day_of_week", Reason: "must be 0 (Sunday) through 6 (Saturday)"}
	}
	if req.StartHour < 0 || req.StartHour > 23 {
		return &errs.ConfigurationError{Field: "start_hour", Reason: "must be 0 through 23"}
	}
	if req.EndHour < 0 || req.EndHour > 23 {
		return &errs.ConfigurationError{Field: "end_hour", Reason: "must be 0 through 23"}
	}
	if req.StartHour > req.EndHour {
		return &errs.ConfigurationError{Field: "start_hour", Reason: "must not be after end_hour"}
	}
	return nil
}

// @Summary Enable or disable a schedule
// @Tags schedules
// @Success 200 {object} apiResponse
// @Router /api/v1/schedules/{id}/active [put]
func (h *CampaignHandler) setScheduleActive(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "id required", nil)
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	ctx := c.Request.Context()
	schedule, err := h.Repo.GetScheduleByID(ctx, id)
	if err != nil {
		Fail(c, err)
		return
	}
	if schedule == nil {
		Error(c, http.StatusNotFound, "schedule not found", nil)
		return
	}
	if err := h.Repo.SetScheduleActive(ctx, id, *req.Active); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{"id": id, "active": *req.Active}, nil)
}

// @Summary Collect metrics for one campaign now
// @Tags metrics
// @Success 200 {object} apiResponse
// @Router /api/v1/campaigns/{id}/metrics/collect [post]
func (h *CampaignHandler) collectMetrics(c *gin.Context) {
	if h.Collector == nil {
		Error(c, http.StatusInternalServerError, "collector unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "id required", nil)
		return
	}
	sample, actions, err := h.Collector.CollectCampaign(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{
		"sample":  sample,
		"actions": actions,
	}, map[string]any{"collected_at": time.Now().UTC()})
}

// @Summary ACOS forecast for one campaign
// @Tags predictions
// @Param refresh query bool false "force a fresh forecast"
// @Success 200 {object} apiResponse
// @Router /api/v1/campaigns/{id}/prediction [get]
func (h *CampaignHandler) prediction(c *gin.Context) {
	if h.Predictor == nil {
		Error(c, http.StatusInternalServerError, "predictor unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "id required", nil)
		return
	}
	ctx := c.Request.Context()
	refresh := false
	if v := boolQueryPtr(c, "refresh"); v != nil {
		refresh = *v
	}
	if !refresh {
		latest, err := h.Predictor.Latest(ctx, id)
		if err != nil {
			Fail(c, err)
			return
		}
		if latest != nil {
			Ok(c, latest, nil)
			return
		}
	}
	prediction, err := h.Predictor.Predict(ctx, id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, prediction, nil)
}
