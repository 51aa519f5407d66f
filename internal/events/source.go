package events

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/feed-service/internal/model"
	"github.com/d60-Lab/feed-service/pkg/logger"
)

// Handler 处理一条事件；返回 nil 才 ack，否则留在 pending 等待重投递
type Handler func(ctx context.Context, ev *model.PostEvent) error

// StreamOptions 消费节奏参数，零值走默认
type StreamOptions struct {
	Workers        int
	Block          time.Duration // XREADGROUP 阻塞时长
	ReclaimEvery   time.Duration // pending 接管轮询间隔
	ReclaimMinIdle time.Duration // 超过该闲置时长的 pending 才接管
	HandleTimeout  time.Duration
}

// StreamSource 基于 Redis Streams consumer group 的事件源（至少一次投递）。
// 同一作者的事件路由到固定 worker 串行处理，不同作者可并行。
type StreamSource struct {
	rdb      *redis.Client
	stream   string
	group    string
	consumer string
	opts     StreamOptions
}

func NewStreamSource(rdb *redis.Client, stream, group, consumer string, opts StreamOptions) *StreamSource {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Block <= 0 {
		opts.Block = 200 * time.Millisecond
	}
	if opts.ReclaimEvery <= 0 {
		opts.ReclaimEvery = 10 * time.Second
	}
	if opts.ReclaimMinIdle <= 0 {
		opts.ReclaimMinIdle = 30 * time.Second
	}
	if opts.HandleTimeout <= 0 {
		opts.HandleTimeout = 60 * time.Second
	}
	return &StreamSource{rdb: rdb, stream: stream, group: group, consumer: consumer, opts: opts}
}

func routeKey(author string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(author))
	return int(h.Sum32() % uint32(n))
}

// Start 启动消费循环；返回停止函数。
func (s *StreamSource) Start(h Handler) func(context.Context) error {
	// 组可能已存在（BUSYGROUP），忽略
	if err := s.rdb.XGroupCreateMkStream(context.Background(), s.stream, s.group, "0").Err(); err != nil &&
		!strings.Contains(err.Error(), "BUSYGROUP") {
		logger.Error("create consumer group", zap.Error(err))
	}

	stop := make(chan struct{})
	chans := make([]chan redis.XMessage, s.opts.Workers)
	var workerWg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		chans[i] = make(chan redis.XMessage, 64)
		workerWg.Add(1)
		go func(ch <-chan redis.XMessage) {
			defer workerWg.Done()
			for msg := range ch {
				s.handle(h, msg)
			}
		}(chans[i])
	}

	route := func(msg redis.XMessage) {
		ev, ok := decode(msg)
		if !ok {
			// 无法解码的消息直接 ack，避免卡住 pending
			_ = s.rdb.XAck(context.Background(), s.stream, s.group, msg.ID).Err()
			return
		}
		chans[routeKey(ev.Author, s.opts.Workers)] <- msg
	}

	var loopWg sync.WaitGroup
	loopWg.Add(2)
	go func() {
		defer loopWg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			res, err := s.rdb.XReadGroup(context.Background(), &redis.XReadGroupArgs{
				Group:    s.group,
				Consumer: s.consumer,
				Streams:  []string{s.stream, ">"},
				Count:    16,
				Block:    s.opts.Block,
			}).Result()
			if err != nil {
				if err != redis.Nil {
					time.Sleep(s.opts.Block)
				}
				continue
			}
			for _, str := range res {
				for _, msg := range str.Messages {
					route(msg)
				}
			}
		}
	}()
	go func() {
		defer loopWg.Done()
		ticker := time.NewTicker(s.opts.ReclaimEvery)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				// 接管挂掉的 consumer 留下的 pending
				msgs, _, err := s.rdb.XAutoClaim(context.Background(), &redis.XAutoClaimArgs{
					Stream:   s.stream,
					Group:    s.group,
					Consumer: s.consumer,
					MinIdle:  s.opts.ReclaimMinIdle,
					Start:    "0",
					Count:    16,
				}).Result()
				if err != nil {
					continue
				}
				for _, msg := range msgs {
					route(msg)
				}
			}
		}
	}()

	return func(ctx context.Context) error {
		close(stop)
		loopWg.Wait()
		for _, ch := range chans {
			close(ch)
		}
		workerWg.Wait()
		return nil
	}
}

func (s *StreamSource) handle(h Handler, msg redis.XMessage) {
	ev, ok := decode(msg)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.HandleTimeout)
	defer cancel()
	if err := h(ctx, ev); err != nil {
		logger.Warn("event handling failed, leaving pending",
			zap.String("id", msg.ID), zap.String("post", ev.PostID), zap.Error(err))
		return
	}
	_ = s.rdb.XAck(ctx, s.stream, s.group, msg.ID).Err()
}

func decode(msg redis.XMessage) (*model.PostEvent, bool) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		return nil, false
	}
	var ev model.PostEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, false
	}
	return &ev, true
}
