package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/tubedigest/internal/model"
	"github.com/d60-Lab/tubedigest/internal/youtube"
)

func TestScanner_FindsOnlyNewVideos(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.feed.set("UCalpha", "v2", "v1")
	_, err := env.svc.Bootstrap(ctx, "user-a", "@alpha")
	require.NoError(t, err)
	_, err = env.svc.BootstrapResolved(ctx, "user-b", youtube.ChannelInfo{ID: "UCalpha"})
	require.NoError(t, err)

	env.feed.set("UCalpha", "v3", "v2", "v1")
	scanner := NewScanner(env.subs, env.ledgers(), env.feed, env.publisher, time.Hour, 1)

	stats, err := scanner.ScanOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Channels)
	assert.Equal(t, 1, stats.NewVideos)
	assert.EqualValues(t, 2, stats.Deliveries)

	v3, err := env.videos.Get(ctx, "v3")
	require.NoError(t, err)
	assert.Equal(t, model.VideoStatusPending, v3.Status)
	ds, err := env.deliveries.ListByVideo(ctx, "v3")
	require.NoError(t, err)
	assert.Len(t, ds, 2)

	again, err := scanner.ScanOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.NewVideos)
	assert.EqualValues(t, 4, env.countRows(t, "deliveries"))
}

func TestScanner_SkipsInactiveSubscribers(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	sub, err := env.svc.BootstrapResolved(ctx, "user-a", youtube.ChannelInfo{ID: "UCalpha"})
	require.NoError(t, err)
	_, err = env.svc.BootstrapResolved(ctx, "user-b", youtube.ChannelInfo{ID: "UCalpha"})
	require.NoError(t, err)
	_, err = env.svc.SetActive(ctx, "user-a", sub.ID, false)
	require.NoError(t, err)

	env.feed.set("UCalpha", "v1")
	scanner := NewScanner(env.subs, env.ledgers(), env.feed, nil, time.Hour, 10)
	_, err = scanner.ScanOnce(ctx)
	require.NoError(t, err)

	ds, err := env.deliveries.ListByVideo(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "user-b", ds[0].UserID)
}

func TestScanner_ChannelFailureCounted(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	for _, ch := range []string{"UCa", "UCb"} {
		_, err := env.svc.BootstrapResolved(ctx, testUser, youtube.ChannelInfo{ID: ch})
		require.NoError(t, err)
	}
	env.feed.fail("UCa", errors.New("boom"))
	env.feed.set("UCb", "b1")

	scanner := NewScanner(env.subs, env.ledgers(), env.feed, env.publisher, time.Hour, 10)
	stats, err := scanner.ScanOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Channels)
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, 1, stats.NewVideos)
}

func TestScanner_StartStop(t *testing.T) {
	env := setupEnv(t)
	scanner := NewScanner(env.subs, env.ledgers(), env.feed, nil, 10*time.Millisecond, 10)

	stop := scanner.Start()
	time.Sleep(30 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, stop(ctx))
}
