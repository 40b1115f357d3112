// racebench subscribes many users to the same channels while the scanner runs, then
// checks that every video was queued at most once and that history stayed suppressed.
package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/tubedigest/config"
	"github.com/d60-Lab/tubedigest/internal/model"
	"github.com/d60-Lab/tubedigest/internal/repository"
	"github.com/d60-Lab/tubedigest/internal/service"
	"github.com/d60-Lab/tubedigest/internal/youtube"
	"github.com/d60-Lab/tubedigest/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	N := envInt("N", 1000)
	CONC := envInt("CONC", 16)
	CHANNELS := envInt("CHANNELS", 5)
	VIDEOS := envInt("VIDEOS", 15)
	run := uuid.New().String()[:8]

	channels := make([]string, CHANNELS)
	for i := range channels {
		channels[i] = fmt.Sprintf("UC%s%014d", run, i)
	}

	// local feed server so the bench never touches the network
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, feedXML(r.URL.Query().Get("channel_id"), VIDEOS))
	}))
	defer srv.Close()

	feeds := youtube.NewFeedFetcher(youtube.FeedOptions{URLTemplate: srv.URL + "/feed?channel_id=%s"})
	subs := repository.NewSubscriptionRepository(db)
	ledgers := service.Ledgers{
		Videos:     repository.NewVideoRepository(db),
		Queue:      repository.NewQueueRepository(db),
		Deliveries: repository.NewDeliveryRepository(db),
	}
	reconciler := service.NewReconciler(ledgers, feeds, nil, nil)
	// 压测不受套餐额度限制
	plans := service.NewPlanService(repository.NewPlanRepository(db), subs, math.MaxInt32)
	svc := service.NewSubscriptionService(subs, plans, nil, reconciler)
	scanner := service.NewScanner(subs, ledgers, feeds, nil, 20*time.Millisecond, 500)
	stopScanner := scanner.Start()

	ctx := context.Background()
	jobs := make(chan int, N)
	for i := 0; i < N; i++ {
		jobs <- i
	}
	close(jobs)

	var mu sync.Mutex
	lat := make([]time.Duration, 0, N)
	failures := 0
	t0 := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < min(CONC, N); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				user := fmt.Sprintf("bench-%s-%d", run, i)
				ch := youtube.ChannelInfo{ID: channels[i%CHANNELS], Name: "bench"}
				st := time.Now()
				_, err := svc.BootstrapResolved(ctx, user, ch)
				d := time.Since(st)
				mu.Lock()
				lat = append(lat, d)
				if err != nil {
					failures++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(t0)
	_ = stopScanner(ctx)

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		k = max(0, min(k, len(xs)-1))
		return xs[k]
	}

	fmt.Printf("N=%d, CONC=%d, CHANNELS=%d, VIDEOS=%d\n", N, CONC, CHANNELS, VIDEOS)
	fmt.Printf("bootstrap total: %v, per op: %v, p50: %v, p95: %v, p99: %v, failures: %d\n",
		total, total/time.Duration(N), pct(lat, 0.50), pct(lat, 0.95), pct(lat, 0.99), failures)

	violations := 0
	for _, ch := range channels {
		videos := must(ledgers.Videos.ListByChannel(ctx, ch))
		items := must(ledgers.Queue.ListByChannel(ctx, ch))
		counts := map[model.VideoStatus]int{}
		for _, v := range videos {
			counts[v.Status]++
		}
		// 只有最新一条应进入队列
		if len(items) != 1 || counts[model.VideoStatusPending] != 1 || counts[model.VideoStatusSkipped] != VIDEOS-1 {
			violations++
		}
		fmt.Printf("%s: ledger=%v queue=%d\n", ch, counts, len(items))
	}
	if violations > 0 {
		fmt.Printf("FAIL: %d channel(s) violated history suppression\n", violations)
		os.Exit(1)
	}
	fmt.Println("OK: history suppressed on every channel")
}

func feedXML(channelID string, n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
 <title>bench</title>
`)
	for i := n; i > 0; i-- {
		id := fmt.Sprintf("%s-%02d", channelID[len(channelID)-6:], i)
		fmt.Fprintf(&b, " <entry><id>yt:video:%s</id><yt:videoId>%s</yt:videoId><title>video %d</title>"+
			"<link rel=\"alternate\" href=\"https://www.youtube.com/watch?v=%s\"/></entry>\n", id, id, i, id)
	}
	b.WriteString("</feed>\n")
	return b.String()
}
