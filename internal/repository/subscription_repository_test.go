package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/tubedigest/internal/model"
)

func TestSubscriptionRepository_CreateDuplicate(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Subscription{UserID: "u1", ChannelID: "UCa", Active: true, SourceType: model.SourceDirect}))
	err := repo.Create(ctx, &model.Subscription{UserID: "u1", ChannelID: "UCa", Active: true, SourceType: model.SourceDirect})
	assert.ErrorIs(t, err, ErrDuplicate)

	exists, err := repo.Exists(ctx, "u1", "UCa")
	require.NoError(t, err)
	assert.True(t, exists)

	subs, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestSubscriptionRepository_ActiveQueries(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t))
	ctx := context.Background()
	listID := "list-1"

	seed := []*model.Subscription{
		{UserID: "u1", ChannelID: "UCa", Active: true, SourceType: model.SourceDirect},
		{UserID: "u1", ChannelID: "UCb", Active: true, SourceType: model.SourceList, ListID: &listID},
		{UserID: "u2", ChannelID: "UCa", Active: true, SourceType: model.SourceDirect},
		{UserID: "u3", ChannelID: "UCa", Active: true, SourceType: model.SourceDirect},
	}
	for _, s := range seed {
		require.NoError(t, repo.Create(ctx, s))
	}
	require.NoError(t, repo.SetActive(ctx, "u3", seed[3].ID, false))

	n, err := repo.CountActive(ctx, "u1", model.SourceDirect)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ids, err := repo.ListActiveSubscriberIDs(ctx, "UCa", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)

	page, err := repo.ListActiveSubscriberIDs(ctx, "UCa", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, page)

	channels, err := repo.ListActiveChannelIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"UCa", "UCb"}, channels)

	removed, err := repo.DeleteByList(ctx, "u1", listID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	assert.ErrorIs(t, repo.Delete(ctx, "u2", seed[0].ID), ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "u1", seed[0].ID))
	_, err = repo.Get(ctx, "u1", seed[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
