package youtube

import (
	"errors"
	"fmt"
)

var (
	// ErrNoVideos 订阅源可读但没有可用条目
	ErrNoVideos            = errors.New("no videos available")
	ErrInvalidChannelID    = errors.New("invalid channel id")
	ErrInvalidChannelRef   = errors.New("invalid channel reference")
	ErrChannelNotFound     = errors.New("channel not found")
	ErrChannelUnresolvable = errors.New("channel could not be resolved")
	ErrRateLimited         = errors.New("rate limited")
	ErrFeedTimeout         = errors.New("feed request timed out")
	ErrMalformedFeed       = errors.New("malformed feed")
)

// FeedError 携带出错的频道
type FeedError struct {
	Channel string
	Err     error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed %s: %v", e.Channel, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }
