package service

import (
	"context"

	"github.com/d60-Lab/tubedigest/internal/events"
	"github.com/d60-Lab/tubedigest/internal/youtube"
)

// FeedSource 频道视频列表，最新在前
type FeedSource interface {
	Fetch(ctx context.Context, channelID string) ([]youtube.FeedVideo, error)
}

// ChannelResolver 把用户输入解析为规范频道信息
type ChannelResolver interface {
	Resolve(ctx context.Context, ref string) (youtube.ChannelInfo, error)
}

// EventPublisher 通知下游 worker 有新视频入队
type EventPublisher interface {
	Publish(ctx context.Context, ev events.VideoEvent) error
}
