package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/tubedigest/pkg/logger"
	"github.com/d60-Lab/tubedigest/pkg/ratelimit"
)

const (
	DefaultChannelURLTemplate = "https://www.youtube.com/channel/%s"
	DefaultHandleURLTemplate  = "https://www.youtube.com/@%s"
	defaultResolveTimeout     = 8 * time.Second
	defaultResolveCacheTTL    = 24 * time.Hour
	resolveCachePrefix        = "channel:ref:"
)

var handleRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{3,100}$`)

// ChannelInfo is a resolved channel.
type ChannelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// ResolverOptions configures a Resolver. Cache may be nil.
type ResolverOptions struct {
	Client             *http.Client
	Cache              *redis.Client
	CacheTTL           time.Duration
	ChannelURLTemplate string
	HandleURLTemplate  string
	Timeout            time.Duration
	Limiter            *ratelimit.HostLimiter
}

// Resolver turns a user-supplied channel URL, handle or id into a ChannelInfo.
type Resolver struct {
	client      *http.Client
	cache       *redis.Client
	ttl         time.Duration
	channelTmpl string
	handleTmpl  string
	timeout     time.Duration
	limiter     *ratelimit.HostLimiter
}

func NewResolver(opts ResolverOptions) *Resolver {
	r := &Resolver{
		client:      opts.Client,
		cache:       opts.Cache,
		ttl:         opts.CacheTTL,
		channelTmpl: opts.ChannelURLTemplate,
		handleTmpl:  opts.HandleURLTemplate,
		timeout:     opts.Timeout,
		limiter:     opts.Limiter,
	}
	if r.client == nil {
		r.client = &http.Client{}
	}
	if r.ttl <= 0 {
		r.ttl = defaultResolveCacheTTL
	}
	if r.channelTmpl == "" {
		r.channelTmpl = DefaultChannelURLTemplate
	}
	if r.handleTmpl == "" {
		r.handleTmpl = DefaultHandleURLTemplate
	}
	if r.timeout <= 0 {
		r.timeout = defaultResolveTimeout
	}
	return r
}

// ParseRef splits a reference into a channel id or a handle; exactly one is non-empty.
func ParseRef(ref string) (id, handle string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", ErrInvalidChannelRef
	}
	if m := channelIDRegex.FindString(ref); m != "" {
		return m, "", nil
	}

	h := ref
	if i := strings.Index(h, "/@"); i >= 0 {
		h = h[i+2:]
	} else if strings.HasPrefix(h, "@") {
		h = h[1:]
	} else if strings.Contains(h, "/") || strings.Contains(h, ".com") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidChannelRef, ref)
	}
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	if !handleRegex.MatchString(h) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidChannelRef, ref)
	}
	return "", h, nil
}

// Resolve looks the channel up, preferring the cache. When the live lookup fails but the
// reference already carries a channel id, a best-effort ChannelInfo named after the id is
// returned instead of an error.
func (r *Resolver) Resolve(ctx context.Context, ref string) (ChannelInfo, error) {
	id, handle, err := ParseRef(ref)
	if err != nil {
		return ChannelInfo{}, err
	}

	key := resolveCachePrefix + id
	pageURL := fmt.Sprintf(r.channelTmpl, id)
	if handle != "" {
		key = resolveCachePrefix + "@" + strings.ToLower(handle)
		pageURL = fmt.Sprintf(r.handleTmpl, url.PathEscape(handle))
	}

	if info, ok := r.cached(ctx, key); ok {
		return info, nil
	}

	info, err := r.lookup(ctx, pageURL)
	if err == nil && id != "" && info.ID == "" {
		info.ID = id
	}
	if err != nil || info.ID == "" {
		if id != "" {
			logger.Warn("channel lookup failed, using id as name",
				zap.String("channel_id", id), zap.Error(err))
			return ChannelInfo{ID: id, Name: id}, nil
		}
		if err == nil {
			err = errors.New("channel id missing from page")
		}
		return ChannelInfo{}, fmt.Errorf("%w: %s: %v", ErrChannelUnresolvable, ref, err)
	}
	if info.Name == "" {
		info.Name = info.ID
	}

	r.store(ctx, key, info)
	return info, nil
}

func (r *Resolver) lookup(ctx context.Context, pageURL string) (ChannelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx, pageURL); err != nil {
		return ChannelInfo{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return ChannelInfo{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := r.client.Do(req)
	if err != nil {
		return ChannelInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ChannelInfo{}, ErrChannelNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return ChannelInfo{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ChannelInfo{}, fmt.Errorf("parse channel page: %w", err)
	}
	return extractChannelInfo(doc), nil
}

func extractChannelInfo(doc *goquery.Document) ChannelInfo {
	var info ChannelInfo
	for _, sel := range []string{`meta[itemprop="channelId"]`, `meta[itemprop="identifier"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && IsChannelID(v) {
			info.ID = v
			break
		}
	}
	if info.ID == "" {
		if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
			info.ID = channelIDRegex.FindString(href)
		}
	}

	if v, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		info.Name = strings.TrimSpace(v)
	}
	if info.Name == "" {
		info.Name = strings.TrimSuffix(strings.TrimSpace(doc.Find("title").First().Text()), " - YouTube")
	}
	if v, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
		info.AvatarURL = strings.TrimSpace(v)
	}
	return info
}

func (r *Resolver) cached(ctx context.Context, key string) (ChannelInfo, bool) {
	if r.cache == nil {
		return ChannelInfo{}, false
	}
	data, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("resolver cache read failed", zap.String("key", key), zap.Error(err))
		}
		return ChannelInfo{}, false
	}
	var info ChannelInfo
	if err := json.Unmarshal(data, &info); err != nil || info.ID == "" {
		return ChannelInfo{}, false
	}
	return info, true
}

func (r *Resolver) store(ctx context.Context, key string, info ChannelInfo) {
	if r.cache == nil {
		return
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		logger.Warn("resolver cache write failed", zap.String("key", key), zap.Error(err))
	}
}
