package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/tubedigest/internal/model"
	"github.com/d60-Lab/tubedigest/internal/youtube"
)

func seedList(t *testing.T, env *testEnv, channels ...string) string {
	t.Helper()
	ctx := context.Background()
	list := &model.ChannelList{OwnerID: "curator", Name: "science"}
	require.NoError(t, env.lists.CreateList(ctx, list))
	for i, ch := range channels {
		require.NoError(t, env.lists.AddChannel(ctx, &model.ListChannel{ListID: list.ID, ChannelID: ch, ChannelName: ch, Position: i}))
	}
	return list.ID
}

func TestFollow_CreatesGhostSubscriptions(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.feed.set("UCa", "a2", "a1")
	env.feed.set("UCb", "b1")
	listID := seedList(t, env, "UCa", "UCb", "UCc")

	res, err := env.follow.Follow(ctx, testUser, listID)
	require.NoError(t, err)
	require.Len(t, res.Subscriptions, 3)
	assert.Empty(t, res.Skipped)
	for _, s := range res.Subscriptions {
		assert.Equal(t, model.SourceList, s.SourceType)
		require.NotNil(t, s.ListID)
		assert.Equal(t, listID, *s.ListID)
	}

	a2, err := env.videos.Get(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, model.VideoStatusPending, a2.Status)
	a1, err := env.videos.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.VideoStatusSkipped, a1.Status)

	ds, err := env.deliveries.ListByUser(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, ds, 2)
	assert.EqualValues(t, 2, env.countRows(t, "processing_queue"))

	// 幽灵订阅不占用额度
	planSvc := NewPlanService(env.plans, env.subs, 3)
	limits, err := planSvc.Limits(ctx, testUser)
	require.NoError(t, err)
	assert.Zero(t, limits.Active)
}

func TestFollow_SkipsExistingSubscriptions(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	_, err := env.svc.BootstrapResolved(ctx, testUser, youtube.ChannelInfo{ID: "UCa"})
	require.NoError(t, err)
	listID := seedList(t, env, "UCa", "UCb")

	res, err := env.follow.Follow(ctx, testUser, listID)
	require.NoError(t, err)
	assert.Equal(t, []string{"UCa"}, res.Skipped)
	require.Len(t, res.Subscriptions, 1)
	assert.Equal(t, "UCb", res.Subscriptions[0].ChannelID)
}

func TestFollow_Preconditions(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.follow.Follow(ctx, testUser, "missing")
	assert.ErrorIs(t, err, ErrListNotFound)

	listID := seedList(t, env, "UCa")
	_, err = env.follow.Follow(ctx, testUser, listID)
	require.NoError(t, err)
	_, err = env.follow.Follow(ctx, testUser, listID)
	assert.ErrorIs(t, err, ErrAlreadyFollowing)
}

func TestFollow_DeliveryFailureRollsBack(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.feed.set("UCa", "a2", "a1")
	env.feed.set("UCb", "b2", "b1")
	env.failing.failOn["b2"] = true
	listID := seedList(t, env, "UCa", "UCb")

	res, err := env.follow.Follow(ctx, testUser, listID)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrListFollowRolledBack)
	assert.ErrorIs(t, err, errDeliveryDown)

	subs, err := env.subs.ListByUser(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, subs)
	following, err := env.lists.FollowExists(ctx, testUser, listID)
	require.NoError(t, err)
	assert.False(t, following)

	// 台账行保留，后续重试仍然安全
	b1, err := env.videos.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, model.VideoStatusSkipped, b1.Status)

	delete(env.failing.failOn, "b2")
	res, err = env.follow.Follow(ctx, testUser, listID)
	require.NoError(t, err)
	assert.Len(t, res.Subscriptions, 2)
	ds, err := env.deliveries.ListByUser(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, ds, 2)
}

func TestUnfollow_RemovesGhostSubscriptions(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	_, err := env.svc.BootstrapResolved(ctx, testUser, youtube.ChannelInfo{ID: "UCdirect"})
	require.NoError(t, err)
	listID := seedList(t, env, "UCa", "UCb")
	_, err = env.follow.Follow(ctx, testUser, listID)
	require.NoError(t, err)

	require.NoError(t, env.follow.Unfollow(ctx, testUser, listID))
	subs, err := env.subs.ListByUser(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "UCdirect", subs[0].ChannelID)

	assert.ErrorIs(t, env.follow.Unfollow(ctx, testUser, listID), ErrNotFollowing)
}

func TestFollow_CallerCancelledDuringFetch(t *testing.T) {
	env := setupEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.feed.set("UCa", "a2", "a1")
	env.feed.onFetch = cancel
	listID := seedList(t, env, "UCa", "UCb")

	res, err := env.follow.Follow(ctx, testUser, listID)
	require.NoError(t, err)
	assert.Len(t, res.Subscriptions, 2)
	assert.EqualValues(t, 1, env.countRows(t, "deliveries"))
}

func TestFollow_RollbackSurvivesCallerCancel(t *testing.T) {
	env := setupEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.feed.set("UCa", "a1")
	env.feed.onFetch = cancel
	env.failing.failOn["a1"] = true
	listID := seedList(t, env, "UCa")

	_, err := env.follow.Follow(ctx, testUser, listID)
	assert.ErrorIs(t, err, ErrListFollowRolledBack)
	assert.ErrorIs(t, err, errDeliveryDown)

	bg := context.Background()
	following, err := env.lists.FollowExists(bg, testUser, listID)
	require.NoError(t, err)
	assert.False(t, following)
	subs, err := env.subs.ListByUser(bg, testUser)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
