package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/tubedigest/internal/model"
)

// QueueRepository 处理队列，video_id 唯一
type QueueRepository interface {
	InsertIfAbsent(ctx context.Context, item *model.QueueItem) (bool, error)
	Get(ctx context.Context, videoID string) (*model.QueueItem, error)
	ListByChannel(ctx context.Context, channelID string) ([]*model.QueueItem, error)
	ListByStatus(ctx context.Context, status model.QueueStatus, limit int) ([]*model.QueueItem, error)
}

type queueRepository struct{ db *gorm.DB }

func NewQueueRepository(db *gorm.DB) QueueRepository { return &queueRepository{db: db} }

func (r *queueRepository) InsertIfAbsent(ctx context.Context, item *model.QueueItem) (bool, error) {
	if item.Status == "" {
		item.Status = model.QueueStatusQueued
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *queueRepository) Get(ctx context.Context, videoID string) (*model.QueueItem, error) {
	var item model.QueueItem
	err := r.db.WithContext(ctx).Where("video_id = ?", videoID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *queueRepository) ListByChannel(ctx context.Context, channelID string) ([]*model.QueueItem, error) {
	var res []*model.QueueItem
	err := r.db.WithContext(ctx).Where("channel_id = ?", channelID).Order("created_at").Find(&res).Error
	return res, err
}

func (r *queueRepository) ListByStatus(ctx context.Context, status model.QueueStatus, limit int) ([]*model.QueueItem, error) {
	if limit <= 0 {
		limit = 100
	}
	var res []*model.QueueItem
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at").
		Limit(limit).
		Find(&res).Error
	return res, err
}
