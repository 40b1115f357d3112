package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/tubedigest/internal/model"
	"github.com/d60-Lab/tubedigest/internal/repository"
	"github.com/d60-Lab/tubedigest/internal/youtube"
	"github.com/d60-Lab/tubedigest/pkg/logger"
)

// ScanStats 单轮扫描统计
type ScanStats struct {
	Channels   int
	NewVideos  int
	Deliveries int64
	Failures   int
}

// Scanner 周期扫描已订阅频道，发现新视频时写 pending、入队并为所有活跃订阅者扇出投递。
// 只有插入成功的一方才会入队，因此与 Reconciler 并发时同一视频只会处理一次。
type Scanner struct {
	subs     repository.SubscriptionRepository
	ledgers  Ledgers
	feeds    FeedSource
	events   EventPublisher
	interval time.Duration
	pageSize int
	mu       sync.Mutex
}

func NewScanner(subs repository.SubscriptionRepository, ledgers Ledgers, feeds FeedSource, publisher EventPublisher, interval time.Duration, pageSize int) *Scanner {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Scanner{subs: subs, ledgers: ledgers, feeds: feeds, events: publisher, interval: interval, pageSize: pageSize}
}

// Start 启动扫描循环；返回停止函数。
func (s *Scanner) Start() func(context.Context) error {
	stop := make(chan struct{})
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(done)
		s.loop(ctx, stop)
	}()
	return func(shutdown context.Context) error {
		close(stop)
		cancel()
		select {
		case <-done:
			return nil
		case <-shutdown.Done():
			return shutdown.Err()
		}
	}
}

func (s *Scanner) loop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stats, err := s.ScanOnce(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("scan failed", zap.Error(err))
				continue
			}
			logger.Info("scan finished",
				zap.Int("channels", stats.Channels),
				zap.Int("new_videos", stats.NewVideos),
				zap.Int64("deliveries", stats.Deliveries),
				zap.Int("failures", stats.Failures),
			)
		}
	}
}

// ScanOnce 扫描所有有活跃订阅的频道。单个频道失败只计数不中断。
func (s *Scanner) ScanOnce(ctx context.Context) (ScanStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats ScanStats
	channels, err := s.subs.ListActiveChannelIDs(ctx)
	if err != nil {
		return stats, err
	}
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Channels++
		n, delivered, err := s.ScanChannel(ctx, ch)
		stats.NewVideos += n
		stats.Deliveries += delivered
		if err != nil {
			stats.Failures++
			logger.Warn("channel scan failed", zap.String("channel_id", ch), zap.Error(err))
		}
	}
	return stats, nil
}

// ScanChannel 返回新发现的视频数与写入的投递数
func (s *Scanner) ScanChannel(ctx context.Context, channelID string) (int, int64, error) {
	videos, err := s.feeds.Fetch(ctx, channelID)
	if errors.Is(err, youtube.ErrNoVideos) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}

	found := 0
	var delivered int64
	for _, v := range videos {
		inserted, err := s.ledgers.Videos.InsertIfAbsent(ctx, &model.Video{
			VideoID:   v.ID,
			ChannelID: channelID,
			Title:     v.Title,
			URL:       videoURL(v),
			Status:    model.VideoStatusPending,
		})
		if err != nil {
			return found, delivered, err
		}
		if !inserted {
			continue
		}
		found++

		queued, err := s.ledgers.Queue.InsertIfAbsent(ctx, &model.QueueItem{
			VideoID:   v.ID,
			ChannelID: channelID,
			URL:       videoURL(v),
			Title:     v.Title,
			Status:    model.QueueStatusQueued,
		})
		if err != nil {
			return found, delivered, err
		}
		if queued && s.events != nil {
			if err := s.events.Publish(ctx, eventFor(v, channelID)); err != nil {
				logger.Warn("failed to publish queue event", zap.String("video_id", v.ID), zap.Error(err))
			}
		}

		n, err := s.fanout(ctx, channelID, v.ID)
		delivered += n
		if err != nil {
			return found, delivered, err
		}
	}
	return found, delivered, nil
}

// fanout 分页读取活跃订阅者并批量写投递记录
func (s *Scanner) fanout(ctx context.Context, channelID, videoID string) (int64, error) {
	var total int64
	offset := 0
	for {
		users, err := s.subs.ListActiveSubscriberIDs(ctx, channelID, offset, s.pageSize)
		if err != nil {
			return total, err
		}
		if len(users) == 0 {
			break
		}
		n, err := s.ledgers.Deliveries.InsertManyIfAbsent(ctx, videoID, users)
		if err != nil {
			return total, err
		}
		total += n
		if len(users) < s.pageSize {
			break
		}
		offset += s.pageSize
	}
	return total, nil
}
