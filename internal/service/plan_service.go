package service

import (
	"context"
	"fmt"
	"time"

	"github.com/d60-Lab/tubedigest/internal/model"
	"github.com/d60-Lab/tubedigest/internal/repository"
)

// Limits 用户当前的频道额度
type Limits struct {
	Max       int   `json:"max"`
	Active    int64 `json:"active"`
	Unlimited bool  `json:"unlimited"`
}

// Reached reports whether one more active direct subscription would exceed the plan.
func (l Limits) Reached() bool {
	return !l.Unlimited && l.Active >= int64(l.Max)
}

// PlanService 套餐额度查询；幽灵订阅不计入额度
type PlanService interface {
	Limits(ctx context.Context, userID string) (Limits, error)
}

type planService struct {
	plans     repository.PlanRepository
	subs      repository.SubscriptionRepository
	freeLimit int
	now       func() time.Time
}

func NewPlanService(plans repository.PlanRepository, subs repository.SubscriptionRepository, freeLimit int) PlanService {
	return &planService{plans: plans, subs: subs, freeLimit: freeLimit, now: time.Now}
}

func (s *planService) Limits(ctx context.Context, userID string) (Limits, error) {
	plan, err := s.plans.Get(ctx, userID)
	if err != nil {
		return Limits{}, fmt.Errorf("load plan: %w", err)
	}
	active, err := s.subs.CountActive(ctx, userID, model.SourceDirect)
	if err != nil {
		return Limits{}, fmt.Errorf("count active subscriptions: %w", err)
	}
	return Limits{Max: s.freeLimit, Active: active, Unlimited: plan.Unlimited(s.now())}, nil
}
