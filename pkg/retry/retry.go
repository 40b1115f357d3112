// Package retry runs an operation with exponential backoff and jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// JitterFraction of the backoff, 0.0-1.0
	JitterFraction float64
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:     2,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

// Classifier reports whether err is worth another attempt.
type Classifier func(error) bool

// Retryable treats everything except context errors as transient.
func Retryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// NewBackOff builds the exponential policy described by cfg.
func NewBackOff(cfg Config) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialBackoff
	bo.MaxInterval = cfg.MaxBackoff
	bo.Multiplier = cfg.Multiplier
	bo.RandomizationFactor = cfg.JitterFraction
	bo.Reset()
	return bo
}

// Do calls fn until it succeeds, the classifier rejects the error, retries run out or ctx ends.
// Rejected errors are returned unwrapped.
func Do(ctx context.Context, cfg Config, classify Classifier, fn func(context.Context) error) error {
	if classify == nil {
		classify = Retryable
	}
	maxTries := uint(max(cfg.MaxRetries, 0)) + 1

	var lastErr error
	attempts := uint(0)
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := fn(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		lastErr = err
		if !classify(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(NewBackOff(cfg)), backoff.WithMaxTries(maxTries))
	if err == nil {
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(lastErr, ctxErr) {
		return fmt.Errorf("%w (last error: %v)", ctxErr, lastErr)
	}
	if maxTries == 1 || attempts < maxTries {
		return err
	}
	return fmt.Errorf("max retries exceeded: %w", err)
}
