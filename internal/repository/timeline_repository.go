package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/feed-service/internal/model"
)

// TimelinePage 一页时间线项（score 降序，post_id 升序兜底）
type TimelinePage struct {
	Entries    []*model.TimelineEntry
	HasMore    bool
	NextCursor string // HasMore 为 false 时为空
}

type TimelineRepository interface {
	// Append 幂等写入：同一 (owner, post) 重复写入只保留一条
	Append(ctx context.Context, owner, postID string, createdAt time.Time) error
	// Page 按游标读取一页；owner 无数据时返回空页而非错误
	Page(ctx context.Context, owner, cursor string, pageSize int) (*TimelinePage, error)
}

type timelineRepository struct{ db *gorm.DB }

func NewTimelineRepository(db *gorm.DB) TimelineRepository { return &timelineRepository{db: db} }

func (r *timelineRepository) Append(ctx context.Context, owner, postID string, createdAt time.Time) error {
	e := &model.TimelineEntry{
		ID:        uuid.New().String(),
		Owner:     owner,
		PostID:    postID,
		Score:     createdAt.UnixNano(),
		CreatedAt: createdAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e).Error
}

func (r *timelineRepository) Page(ctx context.Context, owner, cursor string, pageSize int) (*TimelinePage, error) {
	if pageSize < 1 {
		pageSize = 10
	}
	q := r.db.WithContext(ctx).Where("owner = ?", owner)
	if cursor != "" {
		c, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		q = q.Where("score < ? OR (score = ? AND post_id > ?)", c.score, c.score, c.postID)
	}

	// 多取一条用于判断 hasMore
	var rows []*model.TimelineEntry
	if err := q.Order("score DESC, post_id ASC").Limit(pageSize + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	page := &TimelinePage{Entries: rows}
	if len(rows) > pageSize {
		page.Entries = rows[:pageSize]
		page.HasMore = true
		last := page.Entries[len(page.Entries)-1]
		page.NextCursor = encodeCursor(last.Score, last.PostID)
	}
	return page, nil
}
