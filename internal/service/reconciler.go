package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/tubedigest/internal/events"
	"github.com/d60-Lab/tubedigest/internal/model"
	"github.com/d60-Lab/tubedigest/internal/repository"
	"github.com/d60-Lab/tubedigest/internal/youtube"
	"github.com/d60-Lab/tubedigest/pkg/alert"
	"github.com/d60-Lab/tubedigest/pkg/logger"
)

var tracer = otel.Tracer("github.com/d60-Lab/tubedigest/internal/service")

// Ledgers 与扫描器、下游 worker 共享的三张台账
type Ledgers struct {
	Videos     repository.VideoRepository
	Queue      repository.QueueRepository
	Deliveries repository.DeliveryRepository
}

// Reconciler 新订阅的历史视频压制与最新视频提升。
// 调用方必须先 suppress、再创建订阅、最后 promote：
// 订阅记录出现之前扫描器无从发现该频道，这个顺序就是互斥手段。
type Reconciler struct {
	ledgers  Ledgers
	feeds    FeedSource
	events   EventPublisher
	reporter alert.Reporter
}

func NewReconciler(ledgers Ledgers, feeds FeedSource, publisher EventPublisher, reporter alert.Reporter) *Reconciler {
	if reporter == nil {
		reporter = alert.Nop{}
	}
	return &Reconciler{ledgers: ledgers, feeds: feeds, events: publisher, reporter: reporter}
}

// FetchHistory never fails: an unreachable, empty or malformed feed yields no videos.
func (r *Reconciler) FetchHistory(ctx context.Context, channelID string) []youtube.FeedVideo {
	ctx, span := tracer.Start(ctx, "feed.fetch", trace.WithAttributes(attribute.String("channel_id", channelID)))
	defer span.End()

	videos, err := r.feeds.Fetch(ctx, channelID)
	if err != nil {
		// 空频道与抓取失败走同一路径，仅日志区分
		if errors.Is(err, youtube.ErrNoVideos) {
			logger.Info("channel feed has no videos", zap.String("channel_id", channelID))
		} else {
			logger.Warn("channel feed fetch failed, continuing without history",
				zap.String("channel_id", channelID), zap.Error(err))
			span.RecordError(err)
		}
		return nil
	}
	span.SetAttributes(attribute.Int("videos", len(videos)))
	return videos
}

// Suppress 把全部历史视频以 skipped 写入台账（已有行保持不变）
func (r *Reconciler) Suppress(ctx context.Context, channelID string, videos []youtube.FeedVideo) error {
	if len(videos) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "ledger.suppress")
	defer span.End()

	rows := make([]*model.Video, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, &model.Video{
			VideoID:   v.ID,
			ChannelID: channelID,
			Title:     v.Title,
			URL:       videoURL(v),
			Status:    model.VideoStatusSkipped,
		})
	}
	n, err := r.ledgers.Videos.InsertManyIfAbsent(ctx, rows)
	if err != nil {
		span.RecordError(err)
		logger.Error("failed to suppress channel history",
			zap.String("channel_id", channelID), zap.Int("videos", len(videos)), zap.Error(err))
		r.reporter.Report("ledger.suppress", err, map[string]string{"channel_id": channelID})
		return fmt.Errorf("suppress history: %w", err)
	}
	logger.Debug("suppressed channel history",
		zap.String("channel_id", channelID), zap.Int("videos", len(videos)), zap.Int64("inserted", n))
	return nil
}

// Promotion 记录提升各步骤的结果；每一步失败都不阻断后续步骤
type Promotion struct {
	VideoID     string
	Upgraded    bool
	Queued      bool
	Delivered   bool
	LedgerErr   error
	QueueErr    error
	DeliveryErr error
}

func (p Promotion) Err() error {
	return errors.Join(p.LedgerErr, p.QueueErr, p.DeliveryErr)
}

// Promote 把最新视频送入处理与投递路径：
// 台账 skipped -> pending（显式升级，不覆盖），入队（insert-or-ignore），为该用户写投递记录。
func (r *Reconciler) Promote(ctx context.Context, userID, channelID string, latest youtube.FeedVideo, source string) Promotion {
	ctx, span := tracer.Start(ctx, "ledger.promote", trace.WithAttributes(
		attribute.String("video_id", latest.ID),
		attribute.String("user_id", userID),
	))
	defer span.End()

	p := Promotion{VideoID: latest.ID}
	fields := []zap.Field{zap.String("user_id", userID), zap.String("channel_id", channelID), zap.String("video_id", latest.ID)}
	tags := map[string]string{"channel_id": channelID, "video_id": latest.ID}

	p.Upgraded, p.LedgerErr = r.upgradeLatest(ctx, channelID, latest)
	if p.LedgerErr != nil {
		logger.Error("failed to promote latest video in ledger", append(fields, zap.Error(p.LedgerErr))...)
		r.reporter.Report("ledger.promote", p.LedgerErr, tags)
	}

	queued, err := r.ledgers.Queue.InsertIfAbsent(ctx, &model.QueueItem{
		VideoID:   latest.ID,
		ChannelID: channelID,
		URL:       videoURL(latest),
		Title:     latest.Title,
		Status:    model.QueueStatusQueued,
	})
	if err != nil {
		p.QueueErr = fmt.Errorf("enqueue: %w", err)
		logger.Error("failed to enqueue latest video", append(fields, zap.Error(err))...)
		r.reporter.Report("queue.insert", err, tags)
	} else {
		p.Queued = queued
		if queued {
			r.publish(ctx, latest, channelID, source)
		}
	}

	if _, err := r.ledgers.Deliveries.InsertIfAbsent(ctx, userID, latest.ID); err != nil {
		p.DeliveryErr = fmt.Errorf("seed delivery: %w", err)
		logger.Error("failed to seed delivery record", append(fields, zap.Error(err))...)
		r.reporter.Report("delivery.insert", err, tags)
	} else {
		p.Delivered = true
	}

	if err := p.Err(); err != nil {
		span.RecordError(err)
	}
	return p
}

// upgradeLatest 升级已存在的 skipped 行；行不存在（压制失败）时补写 pending；
// 已处于 pending 及之后状态的行保持不变。
func (r *Reconciler) upgradeLatest(ctx context.Context, channelID string, latest youtube.FeedVideo) (bool, error) {
	changed, err := r.ledgers.Videos.UpgradeStatus(ctx, latest.ID, model.VideoStatusSkipped, model.VideoStatusPending)
	if err != nil {
		return false, fmt.Errorf("upgrade status: %w", err)
	}
	if changed {
		return true, nil
	}

	_, err = r.ledgers.Videos.Get(ctx, latest.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("load ledger row: %w", err)
	}
	inserted, err := r.ledgers.Videos.InsertIfAbsent(ctx, &model.Video{
		VideoID:   latest.ID,
		ChannelID: channelID,
		Title:     latest.Title,
		URL:       videoURL(latest),
		Status:    model.VideoStatusPending,
	})
	if err != nil {
		return false, fmt.Errorf("insert pending row: %w", err)
	}
	return inserted, nil
}

func (r *Reconciler) publish(ctx context.Context, latest youtube.FeedVideo, channelID, source string) {
	if r.events == nil {
		return
	}
	ev := eventFor(latest, channelID)
	ev.Source = source
	if err := r.events.Publish(ctx, ev); err != nil {
		logger.Warn("failed to publish queue event", zap.String("video_id", latest.ID), zap.Error(err))
	}
}

func eventFor(v youtube.FeedVideo, channelID string) events.VideoEvent {
	return events.VideoEvent{
		Type:      events.VideoQueued,
		VideoID:   v.ID,
		ChannelID: channelID,
		Source:    "scanner",
	}
}

func videoURL(v youtube.FeedVideo) string {
	if v.URL != "" {
		return v.URL
	}
	return model.WatchURL(v.ID)
}
