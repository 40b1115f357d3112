package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/tubedigest/internal/model"
	"github.com/d60-Lab/tubedigest/internal/repository"
	"github.com/d60-Lab/tubedigest/pkg/logger"
)

// FollowResult 批量关注结果
type FollowResult struct {
	ListID        string                `json:"list_id"`
	Subscriptions []*model.Subscription `json:"subscriptions"`
	// Skipped 用户已订阅的频道
	Skipped []string `json:"skipped"`
}

// ListFollowService 关注频道清单：为清单内每个频道创建幽灵订阅
type ListFollowService interface {
	Follow(ctx context.Context, userID, listID string) (*FollowResult, error)
	Unfollow(ctx context.Context, userID, listID string) error
}

type listFollowService struct {
	lists      repository.ListRepository
	subs       repository.SubscriptionRepository
	reconciler *Reconciler
}

func NewListFollowService(lists repository.ListRepository, subs repository.SubscriptionRepository, reconciler *Reconciler) ListFollowService {
	return &listFollowService{lists: lists, subs: subs, reconciler: reconciler}
}

// Follow 对每个频道执行与单个订阅相同的压制/创建/提升顺序。
// 投递记录写入失败（或幽灵订阅创建失败）时撤销本次创建的订阅和关注关系。
func (s *listFollowService) Follow(ctx context.Context, userID, listID string) (_ *FollowResult, err error) {
	ctx, span := tracer.Start(ctx, "list.follow", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("list_id", listID),
	))
	defer span.End()

	if userID == "" || listID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.lists.GetList(ctx, listID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListNotFound
		}
		return nil, err
	}
	channels, err := s.lists.ListChannels(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("load list channels: %w", err)
	}

	if _, err := s.lists.CreateFollow(ctx, userID, listID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyFollowing
		}
		return nil, fmt.Errorf("create follow: %w", err)
	}

	// 关注关系已写入：后续步骤与回滚都不随调用方取消而中断
	ctx = context.WithoutCancel(ctx)

	result := &FollowResult{ListID: listID, Subscriptions: []*model.Subscription{}, Skipped: []string{}}
	var created []string
	committed := false
	defer func() {
		if committed {
			return
		}
		s.rollback(ctx, userID, listID, created, err)
		span.RecordError(err)
		err = fmt.Errorf("%w: %w", ErrListFollowRolledBack, err)
	}()

	for _, ch := range channels {
		exists, err := s.subs.Exists(ctx, userID, ch.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("check existing subscription: %w", err)
		}
		if exists {
			result.Skipped = append(result.Skipped, ch.ChannelID)
			continue
		}

		videos := s.reconciler.FetchHistory(ctx, ch.ChannelID)
		_ = s.reconciler.Suppress(ctx, ch.ChannelID, videos)

		lid := listID
		sub := &model.Subscription{
			UserID:           userID,
			ChannelID:        ch.ChannelID,
			ChannelName:      ch.ChannelName,
			ChannelAvatarURL: ch.ChannelAvatarURL,
			Active:           true,
			SourceType:       model.SourceList,
			ListID:           &lid,
		}
		if err := s.subs.Create(ctx, sub); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				result.Skipped = append(result.Skipped, ch.ChannelID)
				continue
			}
			return nil, fmt.Errorf("create ghost subscription for %s: %w", ch.ChannelID, err)
		}
		created = append(created, sub.ID)
		result.Subscriptions = append(result.Subscriptions, sub)

		if len(videos) == 0 {
			continue
		}
		p := s.reconciler.Promote(ctx, userID, ch.ChannelID, videos[0], "list_follow")
		if p.DeliveryErr != nil {
			return nil, p.DeliveryErr
		}
		if err := p.Err(); err != nil {
			logger.Warn("first summary not fully queued",
				zap.String("user_id", userID), zap.String("channel_id", ch.ChannelID), zap.Error(err))
		}
	}

	committed = true
	logger.Info("list followed",
		zap.String("user_id", userID),
		zap.String("list_id", listID),
		zap.Int("subscriptions", len(result.Subscriptions)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// rollback 补偿：删除本次创建的幽灵订阅与关注关系。台账中的 skipped/pending 行保留。
func (s *listFollowService) rollback(ctx context.Context, userID, listID string, created []string, cause error) {
	fields := []zap.Field{zap.String("user_id", userID), zap.String("list_id", listID), zap.NamedError("cause", cause)}
	if err := s.subs.DeleteByIDs(ctx, created); err != nil {
		logger.Error("rollback: failed to delete ghost subscriptions", append(fields, zap.Error(err))...)
		s.reconciler.reporter.Report("list.rollback", err, map[string]string{"list_id": listID})
	}
	if _, err := s.lists.DeleteFollow(ctx, userID, listID); err != nil {
		logger.Error("rollback: failed to delete follow", append(fields, zap.Error(err))...)
		s.reconciler.reporter.Report("list.rollback", err, map[string]string{"list_id": listID})
		return
	}
	logger.Warn("list follow rolled back", append(fields, zap.Int("ghost_subscriptions", len(created)))...)
}

func (s *listFollowService) Unfollow(ctx context.Context, userID, listID string) error {
	removed, err := s.lists.DeleteFollow(ctx, userID, listID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFollowing
	}
	n, err := s.subs.DeleteByList(ctx, userID, listID)
	if err != nil {
		return fmt.Errorf("delete ghost subscriptions: %w", err)
	}
	logger.Info("list unfollowed", zap.String("user_id", userID), zap.String("list_id", listID), zap.Int64("ghost_subscriptions", n))
	return nil
}
