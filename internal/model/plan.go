package model

import "time"

// PlanType 套餐类型
type PlanType string

const (
	PlanFree  PlanType = "free"
	PlanPro   PlanType = "pro"
	PlanTrial PlanType = "trial"
)

// UserPlan 用户套餐（由计费系统写入，这里只读）
type UserPlan struct {
	UserID      string   `gorm:"primaryKey;type:varchar(36)"`
	Plan        PlanType `gorm:"type:varchar(16);not null;default:free"`
	TrialEndsAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (UserPlan) TableName() string { return "user_plans" }

// Unlimited 专业版或试用期内不限频道数
func (p *UserPlan) Unlimited(now time.Time) bool {
	if p == nil {
		return false
	}
	switch p.Plan {
	case PlanPro:
		return true
	case PlanTrial:
		return p.TrialEndsAt != nil && now.Before(*p.TrialEndsAt)
	}
	return false
}
