package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/tubedigest/internal/model"
)

const insertBatchSize = 100

// VideoRepository 视频台账：首次写入只插不改，状态只能显式向前推进
type VideoRepository interface {
	InsertIfAbsent(ctx context.Context, v *model.Video) (bool, error)
	InsertManyIfAbsent(ctx context.Context, videos []*model.Video) (int64, error)
	UpgradeStatus(ctx context.Context, videoID string, from, to model.VideoStatus) (bool, error)
	Get(ctx context.Context, videoID string) (*model.Video, error)
	ListByChannel(ctx context.Context, channelID string) ([]*model.Video, error)
}

type videoRepository struct{ db *gorm.DB }

func NewVideoRepository(db *gorm.DB) VideoRepository { return &videoRepository{db: db} }

func (r *videoRepository) InsertIfAbsent(ctx context.Context, v *model.Video) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(v)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *videoRepository) InsertManyIfAbsent(ctx context.Context, videos []*model.Video) (int64, error) {
	if len(videos) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(videos, insertBatchSize)
	return res.RowsAffected, res.Error
}

// UpgradeStatus 仅当当前状态等于 from 时更新，返回是否有行被修改
func (r *videoRepository) UpgradeStatus(ctx context.Context, videoID string, from, to model.VideoStatus) (bool, error) {
	if !from.CanAdvanceTo(to) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	res := r.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("video_id = ? AND status = ?", videoID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *videoRepository) Get(ctx context.Context, videoID string) (*model.Video, error) {
	var v model.Video
	err := r.db.WithContext(ctx).Where("video_id = ?", videoID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *videoRepository) ListByChannel(ctx context.Context, channelID string) ([]*model.Video, error) {
	var res []*model.Video
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}
