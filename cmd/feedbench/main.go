package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/feed-service/internal/client"
	"github.com/d60-Lab/feed-service/internal/model"
	"github.com/d60-Lab/feed-service/internal/repository"
	"github.com/d60-Lab/feed-service/internal/service"
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

// localPosts/localProfiles answer batch lookups in-memory so the bench
// isolates store pagination + join cost.
type localPosts struct{}

func (localPosts) GetPostsByIDs(_ context.Context, ids []string, _ string) ([]client.Post, error) {
	out := make([]client.Post, len(ids))
	for i, id := range ids { out[i] = client.Post{ID: id, Author: "author0", Content: "payload"} }
	return out, nil
}

type localProfiles struct{}

func (localProfiles) GetProfilesByUsernames(_ context.Context, usernames []string) ([]client.Profile, error) {
	out := make([]client.Profile, len(usernames))
	for i, u := range usernames { out[i] = client.Profile{Username: u, ProfilePictureURL: "http://img/" + u} }
	return out, nil
}

func main() {
	// params
	M := 10000      // timeline entries for the reader
	PAGESIZE := 20  // page size per read
	REPEAT := 20    // full scroll-throughs
	if s := os.Getenv("M"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { M = v } }
	if s := os.Getenv("PAGESIZE"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { PAGESIZE = v } }
	if s := os.Getenv("REPEAT"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { REPEAT = v } }

	db := must(gorm.Open(sqlite.Open(":memory:"), &gorm.Config{}))
	must(0, db.AutoMigrate(&model.TimelineEntry{}))
	sqlDB := must(db.DB())
	sqlDB.SetMaxOpenConns(1)
	repo := repository.NewTimelineRepository(db)

	ctx := context.Background()
	base := time.Now()
	for i := 0; i < M; i++ {
		must(0, repo.Append(ctx, "u0", fmt.Sprintf("p%06d", i), base.Add(time.Duration(i)*time.Millisecond)))
	}

	svc := service.NewFeedService(repo, localPosts{}, localProfiles{})

	firstPage := make([]time.Duration, 0, REPEAT)
	deepPage := make([]time.Duration, 0, REPEAT*8)
	for r := 0; r < REPEAT; r++ {
		cursor := ""
		depth := 0
		for {
			st := time.Now()
			page := must(svc.GetFeed(ctx, "u0", cursor, PAGESIZE, ""))
			d := time.Since(st)
			if depth == 0 { firstPage = append(firstPage, d) } else { deepPage = append(deepPage, d) }
			depth++
			if page.IsLast { break }
			cursor = page.NextCursor
		}
	}

	fmt.Printf("M=%d PAGESIZE=%d REPEAT=%d\n", M, PAGESIZE, REPEAT)
	fmt.Printf("First page:  p50=%v p95=%v p99=%v\n", pct(firstPage, 0.50), pct(firstPage, 0.95), pct(firstPage, 0.99))
	fmt.Printf("Deep pages:  p50=%v p95=%v p99=%v samples=%d\n", pct(deepPage, 0.50), pct(deepPage, 0.95), pct(deepPage, 0.99), len(deepPage))
}
