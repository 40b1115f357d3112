package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_NilIsNoOp(t *testing.T) {
	assert.Nil(t, NewPublisher(nil, ""))

	var p *Publisher
	assert.NoError(t, p.Publish(context.Background(), VideoEvent{Type: VideoQueued, VideoID: "v1"}))
}

func TestPublisher_WritesToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewPublisher(client, "test:videos")
	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, VideoEvent{Type: VideoQueued, VideoID: "v3", ChannelID: "UCx", Source: "bootstrap"}))

	msgs, err := client.XRange(ctx, "test:videos", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var ev VideoEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["event"].(string)), &ev))
	assert.Equal(t, "v3", ev.VideoID)
	assert.Equal(t, VideoQueued, ev.Type)
	assert.NotEmpty(t, ev.EventID)
	assert.False(t, ev.Timestamp.IsZero())
}
