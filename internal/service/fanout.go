package service

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/feed-service/internal/client"
	"github.com/d60-Lab/feed-service/internal/model"
	"github.com/d60-Lab/feed-service/pkg/logger"
)

// TimelineStore 扇出写入面
type TimelineStore interface {
	Append(ctx context.Context, owner, postID string, createdAt time.Time) error
}

// FollowerProvider 关系链服务的分页粉丝读取面
type FollowerProvider interface {
	GetFollowersPage(ctx context.Context, username string, page, pageSize int) (*client.FollowerPage, error)
}

type FanoutOptions struct {
	FollowerPageSize     int
	AppendWorkers        int
	AppendMaxTries       uint
	AppendRatePerSec     float64 // 0 = 不限速
	RetryInitialInterval time.Duration
}

// FanoutWriter 消费帖子事件，把 created 事件展开为每个粉丝一条时间线写入。
// 粉丝集按页拉取，内存占用与粉丝数无关；写入由固定大小的 worker 池执行。
type FanoutWriter struct {
	store     TimelineStore
	followers FollowerProvider
	opts      FanoutOptions
	limiter   *rate.Limiter
	metricsCh chan time.Duration // 事件产生到扇出完成的耗时
}

func NewFanoutWriter(store TimelineStore, followers FollowerProvider, opts FanoutOptions) *FanoutWriter {
	if opts.FollowerPageSize <= 0 {
		opts.FollowerPageSize = 10
	}
	if opts.AppendWorkers <= 0 {
		opts.AppendWorkers = 8
	}
	if opts.AppendMaxTries == 0 {
		opts.AppendMaxTries = 3
	}
	if opts.RetryInitialInterval <= 0 {
		opts.RetryInitialInterval = 50 * time.Millisecond
	}
	w := &FanoutWriter{store: store, followers: followers, opts: opts, metricsCh: make(chan time.Duration, 65536)}
	if opts.AppendRatePerSec > 0 {
		burst := int(opts.AppendRatePerSec)
		if burst < 1 {
			burst = 1
		}
		w.limiter = rate.NewLimiter(rate.Limit(opts.AppendRatePerSec), burst)
	}
	return w
}

// Metrics 返回落地耗时的只读通道（每个事件完成发送一次 duration）。
func (w *FanoutWriter) Metrics() <-chan time.Duration { return w.metricsCh }

// HandleEvent 处理一条生命周期事件。created 之外的类型直接 ack（更新/删除
// 不回写已扇出的时间线）。返回 error 表示整个事件不 ack、等待重投递——
// 只有粉丝集拉取失败才会走到这里，写入幂等所以重投递安全。
func (w *FanoutWriter) HandleEvent(ctx context.Context, ev *model.PostEvent) error {
	if ev.Type != model.EventPostCreated {
		return nil
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < w.opts.AppendWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for follower := range jobs {
				w.appendOne(ctx, follower, ev)
			}
		}()
	}

	var fetchErr error
	for page := 0; ; page++ {
		fp, err := w.followers.GetFollowersPage(ctx, ev.Author, page, w.opts.FollowerPageSize)
		if err != nil {
			fetchErr = err
			break
		}
		for _, f := range fp.Items {
			jobs <- f
		}
		if !fp.HasMore {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if fetchErr != nil {
		return fetchErr
	}
	if !ev.CreatedAt.IsZero() {
		select {
		case w.metricsCh <- time.Since(ev.CreatedAt):
		default:
		}
	}
	return nil
}

// appendOne 单个粉丝的写入：有限重试，重试耗尽记日志后跳过，
// 不因单个粉丝失败中断其余粉丝的投递。
func (w *FanoutWriter) appendOne(ctx context.Context, follower string, ev *model.PostEvent) {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			logger.Warn("rate limiter wait aborted, skipping follower",
				zap.String("follower", follower), zap.String("post", ev.PostID), zap.Error(err))
			return
		}
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = w.opts.RetryInitialInterval
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, w.store.Append(ctx, follower, ev.PostID, ev.CreatedAt)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(w.opts.AppendMaxTries))
	if err != nil {
		logger.Warn("timeline append failed, skipping follower",
			zap.String("follower", follower), zap.String("post", ev.PostID), zap.Error(err))
	}
}
