package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig(retries int) Config {
	return Config{MaxRetries: retries, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := Do(context.Background(), fastConfig(3), func(err error) bool { return !errors.Is(err, permanent) },
		func(context.Context) error {
			calls++
			return permanent
		})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), fastConfig(2), nil, func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, 3, calls)

	err = Do(context.Background(), fastConfig(0), nil, func(context.Context) error { return boom })
	assert.Equal(t, boom, err)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxRetries: 5, InitialBackoff: time.Second, MaxBackoff: time.Second, Multiplier: 1}
	err := Do(ctx, cfg, nil, func(context.Context) error {
		cancel()
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBackOff(t *testing.T) {
	bo := NewBackOff(DefaultConfig())
	assert.Equal(t, 250*time.Millisecond, bo.InitialInterval)
	assert.Equal(t, 2*time.Second, bo.MaxInterval)
	assert.Equal(t, 2.0, bo.Multiplier)
	assert.Equal(t, 0.2, bo.RandomizationFactor)

	for i := 0; i < 10; i++ {
		next := bo.NextBackOff()
		assert.LessOrEqual(t, next, time.Duration(float64(2*time.Second)*1.2))
	}
}
