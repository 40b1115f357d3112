package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/tubedigest/internal/model"
	"github.com/d60-Lab/tubedigest/internal/repository"
	"github.com/d60-Lab/tubedigest/internal/youtube"
	"github.com/d60-Lab/tubedigest/pkg/logger"
)

// SubscriptionService 订阅服务
type SubscriptionService interface {
	// Bootstrap 解析频道并创建订阅；仅在前置条件不满足时失败
	Bootstrap(ctx context.Context, userID, channelRef string) (*model.Subscription, error)
	BootstrapResolved(ctx context.Context, userID string, ch youtube.ChannelInfo) (*model.Subscription, error)
	List(ctx context.Context, userID string) ([]*model.Subscription, error)
	SetActive(ctx context.Context, userID, subscriptionID string, active bool) (*model.Subscription, error)
	Delete(ctx context.Context, userID, subscriptionID string) error
}

type bootstrapInput struct {
	UserID     string `validate:"required,max=36"`
	ChannelRef string `validate:"required,max=512"`
}

type subscriptionService struct {
	subs       repository.SubscriptionRepository
	plans      PlanService
	resolver   ChannelResolver
	reconciler *Reconciler
	validate   *validator.Validate
}

func NewSubscriptionService(subs repository.SubscriptionRepository, plans PlanService, resolver ChannelResolver, reconciler *Reconciler) SubscriptionService {
	return &subscriptionService{
		subs:       subs,
		plans:      plans,
		resolver:   resolver,
		reconciler: reconciler,
		validate:   validator.New(),
	}
}

func (s *subscriptionService) Bootstrap(ctx context.Context, userID, channelRef string) (*model.Subscription, error) {
	if err := s.validate.Struct(bootstrapInput{UserID: userID, ChannelRef: channelRef}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ch, err := s.resolver.Resolve(ctx, channelRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelUnresolvable, err)
	}
	return s.BootstrapResolved(ctx, userID, ch)
}

func (s *subscriptionService) BootstrapResolved(ctx context.Context, userID string, ch youtube.ChannelInfo) (*model.Subscription, error) {
	ctx, span := tracer.Start(ctx, "subscription.bootstrap", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("channel_id", ch.ID),
	))
	defer span.End()

	if userID == "" || ch.ID == "" {
		return nil, ErrInvalidInput
	}

	// 1. 前置条件：重复订阅、套餐额度。失败时不写任何数据
	exists, err := s.subs.Exists(ctx, userID, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing subscription: %w", err)
	}
	if exists {
		return nil, ErrDuplicateSubscription
	}
	limits, err := s.plans.Limits(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limits.Reached() {
		return nil, ErrLimitReached
	}

	// 前置条件通过后不再响应调用方取消，抓取超时由 FeedFetcher 自行控制
	ctx = context.WithoutCancel(ctx)

	// 2. 抓取频道历史，失败按零视频处理
	videos := s.reconciler.FetchHistory(ctx, ch.ID)

	// 3. 压制历史视频，必须在订阅可见之前完成
	_ = s.reconciler.Suppress(ctx, ch.ID, videos)

	// 4. 创建订阅，此后扫描器才能看到该频道
	sub := &model.Subscription{
		UserID:           userID,
		ChannelID:        ch.ID,
		ChannelName:      ch.Name,
		ChannelAvatarURL: ch.AvatarURL,
		Active:           true,
		SourceType:       model.SourceDirect,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateSubscription
		}
		span.RecordError(err)
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	if err := s.enforceLimit(ctx, sub, limits); err != nil {
		return nil, err
	}

	// 5. 提升最新视频
	if len(videos) > 0 {
		p := s.reconciler.Promote(ctx, userID, ch.ID, videos[0], "bootstrap")
		if err := p.Err(); err != nil {
			logger.Warn("first summary not fully queued",
				zap.String("user_id", userID), zap.String("channel_id", ch.ID), zap.Error(err))
		}
	}

	logger.Info("subscription created",
		zap.String("user_id", userID),
		zap.String("channel_id", ch.ID),
		zap.Int("history", len(videos)),
	)
	return sub, nil
}

// enforceLimit 并发创建可能同时通过额度检查，创建后重新计数，超额则撤销本次订阅
func (s *subscriptionService) enforceLimit(ctx context.Context, sub *model.Subscription, limits Limits) error {
	if limits.Unlimited {
		return nil
	}
	active, err := s.subs.CountActive(ctx, sub.UserID, model.SourceDirect)
	if err != nil {
		logger.Warn("failed to recount active subscriptions", zap.String("user_id", sub.UserID), zap.Error(err))
		return nil
	}
	if active <= int64(limits.Max) {
		return nil
	}
	if err := s.subs.Delete(ctx, sub.UserID, sub.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("undo over-limit subscription: %w", err)
	}
	logger.Warn("concurrent subscribe exceeded plan limit, subscription removed",
		zap.String("user_id", sub.UserID), zap.String("channel_id", sub.ChannelID), zap.Int64("active", active))
	return ErrLimitReached
}

func (s *subscriptionService) List(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return s.subs.ListByUser(ctx, userID)
}

// SetActive 重新激活直接订阅时再次校验额度
func (s *subscriptionService) SetActive(ctx context.Context, userID, subscriptionID string, active bool) (*model.Subscription, error) {
	sub, err := s.subs.Get(ctx, userID, subscriptionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	if sub.Active == active {
		return sub, nil
	}

	if active && sub.SourceType == model.SourceDirect {
		limits, err := s.plans.Limits(ctx, userID)
		if err != nil {
			return nil, err
		}
		if limits.Reached() {
			return nil, ErrLimitReached
		}
	}

	if err := s.subs.SetActive(ctx, userID, subscriptionID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	sub.Active = active
	return sub, nil
}

func (s *subscriptionService) Delete(ctx context.Context, userID, subscriptionID string) error {
	err := s.subs.Delete(ctx, userID, subscriptionID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSubscriptionNotFound
	}
	return err
}
