package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/tubedigest/internal/model"
)

// SubscriptionRepository 订阅关系
type SubscriptionRepository interface {
	// Create 重复的 (user, channel) 返回 ErrDuplicate
	Create(ctx context.Context, sub *model.Subscription) error
	Exists(ctx context.Context, userID, channelID string) (bool, error)
	Get(ctx context.Context, userID, subscriptionID string) (*model.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error)
	CountActive(ctx context.Context, userID string, source model.SourceType) (int64, error)
	ListActiveSubscriberIDs(ctx context.Context, channelID string, offset, limit int) ([]string, error)
	ListActiveChannelIDs(ctx context.Context) ([]string, error)
	SetActive(ctx context.Context, userID, subscriptionID string, active bool) error
	Delete(ctx context.Context, userID, subscriptionID string) error
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteByList(ctx context.Context, userID, listID string) (int64, error)
}

type subscriptionRepository struct{ db *gorm.DB }

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	err := r.db.WithContext(ctx).Create(sub).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *subscriptionRepository) Exists(ctx context.Context, userID, channelID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *subscriptionRepository) Get(ctx context.Context, userID, subscriptionID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", subscriptionID, userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	var res []*model.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&res).Error
	return res, err
}

func (r *subscriptionRepository) CountActive(ctx context.Context, userID string, source model.SourceType) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("user_id = ? AND active = ? AND source_type = ?", userID, true, source).
		Count(&cnt).Error
	return cnt, err
}

// ListActiveSubscriberIDs 分页读取某频道的活跃订阅用户
func (r *subscriptionRepository) ListActiveSubscriberIDs(ctx context.Context, channelID string, offset, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("channel_id = ? AND active = ?", channelID, true).
		Order("user_id").
		Offset(offset).
		Limit(limit).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *subscriptionRepository) ListActiveChannelIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("active = ?", true).
		Distinct().
		Order("channel_id").
		Pluck("channel_id", &ids).Error
	return ids, err
}

func (r *subscriptionRepository) SetActive(ctx context.Context, userID, subscriptionID string, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ? AND user_id = ?", subscriptionID, userID).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, userID, subscriptionID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", subscriptionID, userID).
		Delete(&model.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *subscriptionRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Subscription{}).Error
}

// DeleteByList 删除某清单产生的幽灵订阅
func (r *subscriptionRepository) DeleteByList(ctx context.Context, userID, listID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND list_id = ? AND source_type = ?", userID, listID, model.SourceList).
		Delete(&model.Subscription{})
	return res.RowsAffected, res.Error
}
