package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/d60-Lab/tubedigest/pkg/ratelimit"
	"github.com/d60-Lab/tubedigest/pkg/retry"
)

const (
	DefaultFeedURLTemplate = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"
	defaultFeedTimeout     = 8 * time.Second
	maxFeedBytes           = 4 << 20
	userAgent              = "Mozilla/5.0 (compatible; tubedigest/1.0)"
)

// channelIDRegex matches YouTube channel IDs (UC followed by 22 base64url chars).
var channelIDRegex = regexp.MustCompile(`UC[a-zA-Z0-9_-]{22}`)

// IsChannelID reports whether s is exactly a channel id.
func IsChannelID(s string) bool {
	return len(s) == 24 && channelIDRegex.MatchString(s)
}

// FeedVideo is one entry of a channel feed.
type FeedVideo struct {
	ID        string
	Title     string
	URL       string
	Published *time.Time
}

// FeedOptions configures a FeedFetcher. Zero values fall back to defaults.
type FeedOptions struct {
	Client      *http.Client
	URLTemplate string
	Timeout     time.Duration
	Limiter     *ratelimit.HostLimiter
	Retry       *retry.Config
}

// FeedFetcher reads a channel's public video feed. It has no side effects.
type FeedFetcher struct {
	client      *http.Client
	urlTemplate string
	timeout     time.Duration
	limiter     *ratelimit.HostLimiter
	retry       retry.Config
}

func NewFeedFetcher(opts FeedOptions) *FeedFetcher {
	f := &FeedFetcher{
		client:      opts.Client,
		urlTemplate: opts.URLTemplate,
		timeout:     opts.Timeout,
		limiter:     opts.Limiter,
		retry:       retry.DefaultConfig(),
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.urlTemplate == "" {
		f.urlTemplate = DefaultFeedURLTemplate
	}
	if f.timeout <= 0 {
		f.timeout = defaultFeedTimeout
	}
	if opts.Retry != nil {
		f.retry = *opts.Retry
	}
	return f
}

// Fetch returns the feed entries newest-first, in the order the platform publishes them.
// The whole call, retries included, is bounded by the configured timeout. Zero usable
// entries yields ErrNoVideos.
func (f *FeedFetcher) Fetch(ctx context.Context, channelID string) ([]FeedVideo, error) {
	if !IsChannelID(channelID) {
		return nil, &FeedError{Channel: channelID, Err: ErrInvalidChannelID}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	feedURL := fmt.Sprintf(f.urlTemplate, url.QueryEscape(channelID))
	var videos []FeedVideo
	err := retry.Do(ctx, f.retry, classifyFeedError, func(ctx context.Context) error {
		body, err := f.get(ctx, feedURL)
		if err != nil {
			return &FeedError{Channel: channelID, Err: err}
		}
		feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
		if err != nil {
			return &FeedError{Channel: channelID, Err: fmt.Errorf("%w: %v", ErrMalformedFeed, err)}
		}
		videos = feedVideos(feed)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrFeedTimeout) {
			return nil, &FeedError{Channel: channelID, Err: fmt.Errorf("%w: %v", ErrFeedTimeout, err)}
		}
		return nil, err
	}
	if len(videos) == 0 {
		return nil, &FeedError{Channel: channelID, Err: ErrNoVideos}
	}
	return videos, nil
}

func (f *FeedFetcher) get(ctx context.Context, feedURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx, feedURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrFeedTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrChannelNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// classifyFeedError 404、非法 id、超时、解析失败不重试
func classifyFeedError(err error) bool {
	switch {
	case errors.Is(err, ErrChannelNotFound), errors.Is(err, ErrInvalidChannelID), errors.Is(err, ErrFeedTimeout),
		errors.Is(err, ErrMalformedFeed):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func feedVideos(feed *gofeed.Feed) []FeedVideo {
	videos := make([]FeedVideo, 0, len(feed.Items))
	seen := make(map[string]struct{}, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		id := itemVideoID(item)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		videos = append(videos, FeedVideo{
			ID:        id,
			Title:     strings.TrimSpace(item.Title),
			URL:       "https://www.youtube.com/watch?v=" + id,
			Published: item.PublishedParsed,
		})
	}
	return videos
}

// itemVideoID tries yt:videoId, then the yt:video: guid, then the watch link.
func itemVideoID(item *gofeed.Item) string {
	if yt, ok := item.Extensions["yt"]; ok {
		if vals := yt["videoId"]; len(vals) > 0 && strings.TrimSpace(vals[0].Value) != "" {
			return strings.TrimSpace(vals[0].Value)
		}
	}
	if id, ok := strings.CutPrefix(item.GUID, "yt:video:"); ok && id != "" {
		return id
	}
	for _, link := range append([]string{item.Link}, item.Links...) {
		if link == "" {
			continue
		}
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		if v := u.Query().Get("v"); v != "" {
			return v
		}
	}
	return ""
}
