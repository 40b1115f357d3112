package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/tubedigest/internal/model"
)

// PlanRepository 用户套餐（计费侧写入）
type PlanRepository interface {
	// Get 无记录时返回 nil, nil，视为免费用户
	Get(ctx context.Context, userID string) (*model.UserPlan, error)
	Upsert(ctx context.Context, plan *model.UserPlan) error
}

type planRepository struct{ db *gorm.DB }

func NewPlanRepository(db *gorm.DB) PlanRepository { return &planRepository{db: db} }

func (r *planRepository) Get(ctx context.Context, userID string) (*model.UserPlan, error) {
	var p model.UserPlan
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *planRepository) Upsert(ctx context.Context, plan *model.UserPlan) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"plan", "trial_ends_at", "updated_at"}),
	}).Create(plan).Error
}
