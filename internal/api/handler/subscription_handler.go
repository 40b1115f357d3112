package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/tubedigest/internal/api/middleware"
	"github.com/d60-Lab/tubedigest/internal/service"
	"github.com/d60-Lab/tubedigest/pkg/response"
)

type createSubscriptionRequest struct {
	Channel string `json:"channel" binding:"required,max=512"`
}

type updateSubscriptionRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// CreateSubscription 订阅频道
// @Summary 订阅频道（历史视频压制，仅最新一条进入摘要）
// @Tags 订阅
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createSubscriptionRequest true "频道 URL、@handle 或频道 ID"
// @Success 200 {object} response.Response{data=model.Subscription}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/subscriptions [post]
func (h *Handler) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sub, err := h.subService.Bootstrap(c.Request.Context(), middleware.UserID(c), req.Channel)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, sub)
}

// ListSubscriptions 查询当前用户的订阅
// @Summary 查询订阅列表
// @Tags 订阅
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/subscriptions [get]
func (h *Handler) ListSubscriptions(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)
	subs, err := h.subService.List(ctx, userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	limits, err := h.planService.Limits(ctx, userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"list": subs, "limits": limits})
}

// UpdateSubscription 暂停或恢复订阅
// @Summary 暂停/恢复订阅
// @Tags 订阅
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "订阅ID"
// @Param request body updateSubscriptionRequest true "是否启用"
// @Success 200 {object} response.Response{data=model.Subscription}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/subscriptions/{id} [patch]
func (h *Handler) UpdateSubscription(c *gin.Context) {
	var req updateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sub, err := h.subService.SetActive(c.Request.Context(), middleware.UserID(c), c.Param("id"), *req.Active)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, sub)
}

// DeleteSubscription 取消订阅
// @Summary 取消订阅
// @Tags 订阅
// @Produce json
// @Security BearerAuth
// @Param id path string true "订阅ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/subscriptions/{id} [delete]
func (h *Handler) DeleteSubscription(c *gin.Context) {
	if err := h.subService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrDuplicateSubscription), errors.Is(err, service.ErrAlreadyFollowing):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrLimitReached):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrChannelUnresolvable):
		response.Unprocessable(c, err.Error())
	case errors.Is(err, service.ErrSubscriptionNotFound),
		errors.Is(err, service.ErrListNotFound),
		errors.Is(err, service.ErrNotFollowing):
		response.NotFound(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
