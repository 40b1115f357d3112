package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/tubedigest/internal/model"
)

// ListRepository 频道清单与清单关注关系
type ListRepository interface {
	CreateList(ctx context.Context, list *model.ChannelList) error
	GetList(ctx context.Context, listID string) (*model.ChannelList, error)
	AddChannel(ctx context.Context, ch *model.ListChannel) error
	ListChannels(ctx context.Context, listID string) ([]*model.ListChannel, error)
	// CreateFollow 重复关注返回 ErrDuplicate
	CreateFollow(ctx context.Context, userID, listID string) (*model.ListFollow, error)
	DeleteFollow(ctx context.Context, userID, listID string) (bool, error)
	FollowExists(ctx context.Context, userID, listID string) (bool, error)
}

type listRepository struct{ db *gorm.DB }

func NewListRepository(db *gorm.DB) ListRepository { return &listRepository{db: db} }

func (r *listRepository) CreateList(ctx context.Context, list *model.ChannelList) error {
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(list).Error
}

func (r *listRepository) GetList(ctx context.Context, listID string) (*model.ChannelList, error) {
	var l model.ChannelList
	err := r.db.WithContext(ctx).Where("id = ?", listID).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listRepository) AddChannel(ctx context.Context, ch *model.ListChannel) error {
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ch).Error
}

func (r *listRepository) ListChannels(ctx context.Context, listID string) ([]*model.ListChannel, error) {
	var res []*model.ListChannel
	err := r.db.WithContext(ctx).Where("list_id = ?", listID).Order("position").Find(&res).Error
	return res, err
}

func (r *listRepository) CreateFollow(ctx context.Context, userID, listID string) (*model.ListFollow, error) {
	f := &model.ListFollow{ID: uuid.New().String(), UserID: userID, ListID: listID}
	err := r.db.WithContext(ctx).Create(f).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *listRepository) DeleteFollow(ctx context.Context, userID, listID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND list_id = ?", userID, listID).
		Delete(&model.ListFollow{})
	return res.RowsAffected > 0, res.Error
}

func (r *listRepository) FollowExists(ctx context.Context, userID, listID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.ListFollow{}).
		Where("user_id = ? AND list_id = ?", userID, listID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}
