package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adpilot/internal/approval"
	"adpilot/internal/reconciler"
	"adpilot/internal/repository"
)

type ActionHandler struct {
	Repo       repository.Repository
	Workflow   *approval.Workflow
	Reconciler *reconciler.Reconciler
}

func (h *ActionHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.GET("/actions", h.listActions)
	group.GET("/actions/pending", h.pendingActions)
	group.POST("/actions/:id/approve", h.approveAction)
	group.POST("/actions/:id/reject", h.rejectAction)
	group.POST("/reconcile", h.reconcile)
}

// @Summary List automation actions
// @Tags actions
// @Param status query string false "filter by status"
// @Param campaign_id query string false "filter by campaign"
// @Param source query string false "filter by source"
// @Success 200 {object} apiResponse
// @Router /api/v1/actions [get]
func (h *ActionHandler) listActions(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListActionsParams{
		Limit:            limit,
		Offset:           offset,
		Status:           strings.TrimSpace(c.Query("status")),
		CampaignID:       strings.TrimSpace(c.Query("campaign_id")),
		Source:           strings.TrimSpace(c.Query("source")),
		RequiresApproval: boolQueryPtr(c, "requires_approval"),
	}
	items, err := h.Repo.ListActions(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	total, err := h.Repo.CountActions(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Actions waiting on operator approval, oldest first
// @Tags actions
// @Success 200 {object} apiResponse
// @Router /api/v1/actions/pending [get]
func (h *ActionHandler) pendingActions(c *gin.Context) {
	if h.Workflow == nil {
		Error(c, http.StatusInternalServerError, "workflow unavailable", nil)
		return
	}
	items, err := h.Workflow.PendingApprovals(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

// @Summary Approve a pending action and execute it
// @Tags actions
// @Success 200 {object} apiResponse
// @Router /api/v1/actions/{id}/approve [post]
func (h *ActionHandler) approveAction(c *gin.Context) {
	if h.Workflow == nil {
		Error(c, http.StatusInternalServerError, "workflow unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "id required", nil)
		return
	}
	action, err := h.Workflow.Approve(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, action, nil)
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary Reject a pending action
// @Tags actions
// @Success 200 {object} apiResponse
// @Router /api/v1/actions/{id}/reject [post]
func (h *ActionHandler) rejectAction(c *gin.Context) {
	if h.Workflow == nil {
		Error(c, http.StatusInternalServerError, "workflow unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		Error(c, http.StatusBadRequest, "id required", nil)
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	action, err := h.Workflow.Reject(c.Request.Context(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, action, nil)
}

// @Summary Run schedule reconciliation now
// @Tags actions
// @Success 200 {object} apiResponse
// @Router /api/v1/reconcile [post]
func (h *ActionHandler) reconcile(c *gin.Context) {
	if h.Reconciler == nil {
		Error(c, http.StatusInternalServerError, "reconciler unavailable", nil)
		return
	}
	submitted, err := h.Reconciler.RunOnce(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{"actions_submitted": submitted}, nil)
}
