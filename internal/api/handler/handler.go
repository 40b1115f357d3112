package handler

import (
	"github.com/d60-Lab/tubedigest/internal/service"
)

// Handler HTTP 处理器
type Handler struct {
	subService  service.SubscriptionService
	listService service.ListFollowService
	planService service.PlanService
}

func NewHandler(subService service.SubscriptionService, listService service.ListFollowService, planService service.PlanService) *Handler {
	return &Handler{subService: subService, listService: listService, planService: planService}
}
