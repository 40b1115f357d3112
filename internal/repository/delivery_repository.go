package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/tubedigest/internal/model"
)

// DeliveryRepository 投递台账，(user_id, video_id) 唯一
type DeliveryRepository interface {
	InsertIfAbsent(ctx context.Context, userID, videoID string) (bool, error)
	// InsertManyIfAbsent 同一视频扇出给多个用户
	InsertManyIfAbsent(ctx context.Context, videoID string, userIDs []string) (int64, error)
	Get(ctx context.Context, userID, videoID string) (*model.Delivery, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Delivery, error)
	ListByVideo(ctx context.Context, videoID string) ([]*model.Delivery, error)
}

type deliveryRepository struct{ db *gorm.DB }

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository { return &deliveryRepository{db: db} }

func (r *deliveryRepository) InsertIfAbsent(ctx context.Context, userID, videoID string) (bool, error) {
	d := &model.Delivery{ID: uuid.New().String(), UserID: userID, VideoID: videoID, Status: model.DeliveryStatusPending}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(d)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *deliveryRepository) InsertManyIfAbsent(ctx context.Context, videoID string, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	records := make([]model.Delivery, 0, len(userIDs))
	for _, uid := range userIDs {
		records = append(records, model.Delivery{ID: uuid.New().String(), UserID: uid, VideoID: videoID, Status: model.DeliveryStatusPending})
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&records, insertBatchSize)
	return res.RowsAffected, res.Error
}

func (r *deliveryRepository) Get(ctx context.Context, userID, videoID string) (*model.Delivery, error) {
	var d model.Delivery
	err := r.db.WithContext(ctx).Where("user_id = ? AND video_id = ?", userID, videoID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deliveryRepository) ListByUser(ctx context.Context, userID string) ([]*model.Delivery, error) {
	var res []*model.Delivery
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&res).Error
	return res, err
}

func (r *deliveryRepository) ListByVideo(ctx context.Context, videoID string) ([]*model.Delivery, error) {
	var res []*model.Delivery
	err := r.db.WithContext(ctx).Where("video_id = ?", videoID).Find(&res).Error
	return res, err
}
