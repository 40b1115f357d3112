// Package events notifies the downstream summarization worker through a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/tubedigest/pkg/logger"
)

const DefaultStream = "tubedigest:videos"

// EventType names a queue event.
type EventType string

const VideoQueued EventType = "video.queued"

// VideoEvent is written to the stream whenever a video enters the processing queue.
type VideoEvent struct {
	EventID   string    `json:"event_id"`
	Type      EventType `json:"type"`
	VideoID   string    `json:"video_id"`
	ChannelID string    `json:"channel_id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher writes VideoEvents with XADD. A nil *Publisher is a valid no-op.
type Publisher struct {
	client *redis.Client
	stream string
}

// NewPublisher returns nil when client is nil.
func NewPublisher(client *redis.Client, stream string) *Publisher {
	if client == nil {
		return nil
	}
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{client: client, stream: stream}
}

func (p *Publisher) Publish(ctx context.Context, ev VideoEvent) error {
	if p == nil || p.client == nil {
		return nil
	}
	if ev.EventID == "" {
		ev.EventID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{"event": string(payload)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish to stream: %w", err)
	}

	logger.Debug("published video event",
		zap.String("type", string(ev.Type)),
		zap.String("video_id", ev.VideoID),
		zap.String("stream_id", id),
	)
	return nil
}
