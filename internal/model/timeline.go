package model

import "time"

// TimelineEntry 时间线项（按 owner 切分）
type TimelineEntry struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	Owner  string `gorm:"type:varchar(64);uniqueIndex:ux_timeline_owner_post;index:idx_timeline_owner_score,priority:1;not null"`
	PostID string `gorm:"type:varchar(36);uniqueIndex:ux_timeline_owner_post;not null"`
	// 复合唯一键，避免重复 (owner, post)，重投递时幂等
	// ux_timeline_owner_post = (owner, post_id)
	Score     int64 `gorm:"index:idx_timeline_owner_score,priority:2"` // CreatedAt.UnixNano()，读取排序键
	CreatedAt time.Time
}

func (TimelineEntry) TableName() string { return "timeline" }
