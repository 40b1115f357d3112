package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/tubedigest/internal/events"
	"github.com/d60-Lab/tubedigest/internal/repository"
	"github.com/d60-Lab/tubedigest/internal/youtube"
	"github.com/d60-Lab/tubedigest/pkg/database"
)

const testUser = "user-1"

type fakeFeed struct {
	mu     sync.Mutex
	videos map[string][]youtube.FeedVideo
	errs   map[string]error
	calls  int
	// onFetch 在返回结果前调用
	onFetch func()
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{videos: map[string][]youtube.FeedVideo{}, errs: map[string]error{}}
}

func (f *fakeFeed) set(channelID string, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vs := make([]youtube.FeedVideo, 0, len(ids))
	for _, id := range ids {
		vs = append(vs, youtube.FeedVideo{ID: id, Title: "title " + id})
	}
	f.videos[channelID] = vs
}

func (f *fakeFeed) fail(channelID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[channelID] = err
}

func (f *fakeFeed) Fetch(_ context.Context, channelID string) ([]youtube.FeedVideo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.onFetch != nil {
		f.onFetch()
	}
	if err := f.errs[channelID]; err != nil {
		return nil, err
	}
	vs := f.videos[channelID]
	if len(vs) == 0 {
		return nil, youtube.ErrNoVideos
	}
	return append([]youtube.FeedVideo(nil), vs...), nil
}

type fakeResolver struct {
	channels map[string]youtube.ChannelInfo
}

func (r fakeResolver) Resolve(_ context.Context, ref string) (youtube.ChannelInfo, error) {
	if ch, ok := r.channels[ref]; ok {
		return ch, nil
	}
	return youtube.ChannelInfo{}, youtube.ErrChannelUnresolvable
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.VideoEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.VideoEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// failingDeliveries 让指定视频的投递写入失败
type failingDeliveries struct {
	repository.DeliveryRepository
	failOn map[string]bool
}

var errDeliveryDown = errors.New("delivery store unavailable")

func (d *failingDeliveries) InsertIfAbsent(ctx context.Context, userID, videoID string) (bool, error) {
	if d.failOn[videoID] {
		return false, errDeliveryDown
	}
	return d.DeliveryRepository.InsertIfAbsent(ctx, userID, videoID)
}

type testEnv struct {
	db         *gorm.DB
	feed       *fakeFeed
	publisher  *recordingPublisher
	videos     repository.VideoRepository
	queue      repository.QueueRepository
	deliveries repository.DeliveryRepository
	subs       repository.SubscriptionRepository
	lists      repository.ListRepository
	plans      repository.PlanRepository
	failing    *failingDeliveries
	reconciler *Reconciler
	svc        SubscriptionService
	follow     ListFollowService
}

func setupEnv(tb testing.TB) *testEnv {
	tb.Helper()
	db, err := database.OpenSQLiteMemory()
	require.NoError(tb, err)
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &testEnv{
		db:         db,
		feed:       newFakeFeed(),
		publisher:  &recordingPublisher{},
		videos:     repository.NewVideoRepository(db),
		queue:      repository.NewQueueRepository(db),
		deliveries: repository.NewDeliveryRepository(db),
		subs:       repository.NewSubscriptionRepository(db),
		lists:      repository.NewListRepository(db),
		plans:      repository.NewPlanRepository(db),
	}
	env.failing = &failingDeliveries{DeliveryRepository: env.deliveries, failOn: map[string]bool{}}
	env.reconciler = NewReconciler(env.ledgers(), env.feed, env.publisher, nil)

	resolver := fakeResolver{channels: map[string]youtube.ChannelInfo{
		"@alpha": {ID: "UCalpha", Name: "Alpha"},
		"@beta":  {ID: "UCbeta", Name: "Beta"},
	}}
	planSvc := NewPlanService(env.plans, env.subs, 3)
	env.svc = NewSubscriptionService(env.subs, planSvc, resolver, env.reconciler)
	env.follow = NewListFollowService(env.lists, env.subs, env.reconciler)
	return env
}

func (e *testEnv) ledgers() Ledgers {
	return Ledgers{Videos: e.videos, Queue: e.queue, Deliveries: e.failing}
}

func (e *testEnv) countRows(tb testing.TB, table string) int64 {
	tb.Helper()
	var n int64
	require.NoError(tb, e.db.Table(table).Count(&n).Error)
	return n
}
