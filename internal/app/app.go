// Package app wires repositories, feed clients and services from a Config.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/tubedigest/config"
	"github.com/d60-Lab/tubedigest/internal/events"
	"github.com/d60-Lab/tubedigest/internal/repository"
	"github.com/d60-Lab/tubedigest/internal/service"
	"github.com/d60-Lab/tubedigest/internal/youtube"
	"github.com/d60-Lab/tubedigest/pkg/alert"
	"github.com/d60-Lab/tubedigest/pkg/cache"
	"github.com/d60-Lab/tubedigest/pkg/database"
	"github.com/d60-Lab/tubedigest/pkg/logger"
	"github.com/d60-Lab/tubedigest/pkg/ratelimit"
	"github.com/d60-Lab/tubedigest/pkg/retry"
	"github.com/d60-Lab/tubedigest/pkg/tracing"
)

// App holds everything a binary needs. Close releases it in reverse order.
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Reporter alert.Reporter

	Subscriptions repository.SubscriptionRepository
	Ledgers       service.Ledgers
	Feeds         *youtube.FeedFetcher
	Resolver      *youtube.Resolver
	Publisher     *events.Publisher

	Reconciler  *service.Reconciler
	Plans       service.PlanService
	SubService  service.SubscriptionService
	ListService service.ListFollowService

	closers []func(context.Context) error
}

// New 初始化日志、追踪、告警、数据库与 Redis，并组装服务
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Config: cfg}
	a.closers = append(a.closers, func(context.Context) error { _ = logger.Sync(); return nil })

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, cfg.Tracing)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		a.closers = append(a.closers, shutdown)
	}

	reporter, flush, err := alert.Init(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	a.Reporter = reporter
	a.closers = append(a.closers, func(context.Context) error { flush(); return nil })

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// 缓存与事件流都是可选的
		logger.Warn("redis unavailable, continuing without cache and events", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		a.Redis = rdb
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	}

	a.wire()
	return a, nil
}

func (a *App) wire() {
	cfg := a.Config
	limiter := ratelimit.NewHostLimiter(cfg.YouTube.HostInterval)
	client := &http.Client{}
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.YouTube.FeedRetries

	a.Feeds = youtube.NewFeedFetcher(youtube.FeedOptions{
		Client:      client,
		URLTemplate: cfg.YouTube.FeedURLTemplate,
		Timeout:     cfg.YouTube.FeedTimeout,
		Limiter:     limiter,
		Retry:       &retryCfg,
	})
	a.Resolver = youtube.NewResolver(youtube.ResolverOptions{
		Client:             client,
		Cache:              a.Redis,
		CacheTTL:           cfg.YouTube.ResolveCacheTTL,
		ChannelURLTemplate: cfg.YouTube.ChannelURLTemplate,
		HandleURLTemplate:  cfg.YouTube.HandleURLTemplate,
		Timeout:            cfg.YouTube.FeedTimeout,
		Limiter:            limiter,
	})
	a.Publisher = events.NewPublisher(a.Redis, cfg.Scanner.EventsKey)

	a.Subscriptions = repository.NewSubscriptionRepository(a.DB)
	a.Ledgers = service.Ledgers{
		Videos:     repository.NewVideoRepository(a.DB),
		Queue:      repository.NewQueueRepository(a.DB),
		Deliveries: repository.NewDeliveryRepository(a.DB),
	}

	a.Reconciler = service.NewReconciler(a.Ledgers, a.Feeds, a.Publisher, a.Reporter)
	a.Plans = service.NewPlanService(repository.NewPlanRepository(a.DB), a.Subscriptions, cfg.Plans.FreeChannelLimit)
	a.SubService = service.NewSubscriptionService(a.Subscriptions, a.Plans, a.Resolver, a.Reconciler)
	a.ListService = service.NewListFollowService(repository.NewListRepository(a.DB), a.Subscriptions, a.Reconciler)
}

// NewScanner 使用同一组台账构造扫描器
func (a *App) NewScanner() *service.Scanner {
	return service.NewScanner(a.Subscriptions, a.Ledgers, a.Feeds, a.Publisher,
		a.Config.Scanner.Interval, a.Config.Scanner.PageSize)
}

// Close 逆序释放资源
func (a *App) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
