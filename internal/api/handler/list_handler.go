package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/tubedigest/internal/api/middleware"
	"github.com/d60-Lab/tubedigest/pkg/response"
)

// FollowList 关注频道清单
// @Summary 关注清单（为每个频道创建幽灵订阅，失败整体回滚）
// @Tags 清单
// @Produce json
// @Security BearerAuth
// @Param list_id path string true "清单ID"
// @Success 200 {object} response.Response{data=service.FollowResult}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/lists/{list_id}/follow [post]
func (h *Handler) FollowList(c *gin.Context) {
	res, err := h.listService.Follow(c.Request.Context(), middleware.UserID(c), c.Param("list_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, res)
}

// UnfollowList 取消关注清单
// @Summary 取消关注清单（删除该清单带来的幽灵订阅）
// @Tags 清单
// @Produce json
// @Security BearerAuth
// @Param list_id path string true "清单ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/lists/{list_id}/follow [delete]
func (h *Handler) UnfollowList(c *gin.Context) {
	if err := h.listService.Unfollow(c.Request.Context(), middleware.UserID(c), c.Param("list_id")); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
