package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiter_SpacesRequestsPerHost(t *testing.T) {
	l := NewHostLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://a.example.com/x"))
	require.NoError(t, l.Wait(ctx, "https://b.example.com/x"))
	assert.Less(t, time.Since(start), 40*time.Millisecond, "different hosts do not share a bucket")

	require.NoError(t, l.Wait(ctx, "https://a.example.com/y"))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestHostLimiter_Disabled(t *testing.T) {
	var nilLimiter *HostLimiter
	assert.NoError(t, nilLimiter.Wait(context.Background(), "https://a.example.com"))
	assert.NoError(t, NewHostLimiter(0).Wait(context.Background(), "::bad"))
}

func TestHostLimiter_Errors(t *testing.T) {
	l := NewHostLimiter(time.Hour)
	assert.Error(t, l.Wait(context.Background(), "/relative/path"))

	require.NoError(t, l.Wait(context.Background(), "https://a.example.com"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "https://a.example.com"))
}
