package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/feed-service/internal/model"
)

// Publisher 向事件流写入帖子生命周期事件（内容服务侧 / 本地基准使用）
type Publisher struct {
	rdb    *redis.Client
	stream string
}

func NewPublisher(rdb *redis.Client, stream string) *Publisher {
	return &Publisher{rdb: rdb, stream: stream}
}

func (p *Publisher) Publish(ctx context.Context, ev *model.PostEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{"payload": payload},
	}).Err()
}
