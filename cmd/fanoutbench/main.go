package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/feed-service/internal/client"
	"github.com/d60-Lab/feed-service/internal/events"
	"github.com/d60-Lab/feed-service/internal/model"
	"github.com/d60-Lab/feed-service/internal/repository"
	"github.com/d60-Lab/feed-service/internal/service"
	"github.com/d60-Lab/feed-service/pkg/logger"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 { return 0 }
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 { k = 0 }
	if k >= len(xs) { k = len(xs)-1 }
	return xs[k]
}

// localProvider serves a fixed follower set in pages, no network.
type localProvider struct{ fans []string }

func (p *localProvider) GetFollowersPage(_ context.Context, _ string, page, pageSize int) (*client.FollowerPage, error) {
	start := page * pageSize
	if start >= len(p.fans) { return &client.FollowerPage{}, nil }
	end := start + pageSize
	if end > len(p.fans) { end = len(p.fans) }
	return &client.FollowerPage{Items: p.fans[start:end], HasMore: end < len(p.fans)}, nil
}

func main() {
	_ = logger.Init("warn")

	// params
	N := 5000       // followers of the author
	POSTS := 50     // events to publish
	WORKERS := 4    // event workers
	APPEND := 8     // append workers per event
	PAGE := 100     // follower page size
	if s := os.Getenv("N"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { N = v } }
	if s := os.Getenv("POSTS"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { POSTS = v } }
	if s := os.Getenv("WORKERS"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { WORKERS = v } }
	if s := os.Getenv("APPEND"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { APPEND = v } }
	if s := os.Getenv("PAGE"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { PAGE = v } }

	db := must(gorm.Open(sqlite.Open(":memory:"), &gorm.Config{}))
	must(0, db.AutoMigrate(&model.TimelineEntry{}))
	sqlDB := must(db.DB())
	sqlDB.SetMaxOpenConns(1)
	repo := repository.NewTimelineRepository(db)

	fans := make([]string, N)
	for i := range fans { fans[i] = fmt.Sprintf("u%06d", i) }

	mr := must(miniredis.Run())
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	writer := service.NewFanoutWriter(repo, &localProvider{fans: fans}, service.FanoutOptions{
		FollowerPageSize: PAGE,
		AppendWorkers:    APPEND,
	})
	src := events.NewStreamSource(rdb, "post-events", "fanout", "bench", events.StreamOptions{Workers: WORKERS})
	stop := src.Start(writer.HandleEvent)
	defer stop(context.Background())

	pub := events.NewPublisher(rdb, "post-events")
	for i := 0; i < POSTS; i++ {
		ev := &model.PostEvent{Type: model.EventPostCreated, PostID: fmt.Sprintf("p%04d", i), Author: "author0", CreatedAt: time.Now()}
		must(0, pub.Publish(context.Background(), ev))
	}

	// collect landing metrics (event created -> fanout done)
	land := make([]time.Duration, 0, POSTS)
	timeout := time.After(2 * time.Minute)
	for len(land) < POSTS {
		select {
		case d := <-writer.Metrics():
			land = append(land, d)
		case <-timeout:
			fmt.Printf("timeout while waiting for fanout metrics: got=%d want=%d\n", len(land), POSTS)
			goto PRINT
		}
	}

PRINT:
	var sum time.Duration
	for _, d := range land { sum += d }
	fmt.Printf("N=%d POSTS=%d WORKERS=%d APPEND=%d PAGE=%d\n", N, POSTS, WORKERS, APPEND, PAGE)
	if len(land) > 0 {
		fmt.Printf("Fanout landing (event->done): samples=%d avg=%v p95=%v p99=%v\n",
			len(land), sum/time.Duration(len(land)), pct(land, 0.95), pct(land, 0.99))
	}

	// spot-check one follower's timeline
	page := must(repo.Page(context.Background(), fans[0], "", 50))
	fmt.Printf("Timeline read (fan0, limit=50): rows=%d hasMore=%v\n", len(page.Entries), page.HasMore)
}
