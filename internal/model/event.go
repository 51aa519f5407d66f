package model

import "time"

// 帖子生命周期事件类型
const (
	EventPostCreated = "created"
	EventPostUpdated = "updated"
	EventPostDeleted = "deleted"
)

// PostEvent 帖子生命周期事件（至少一次投递）
type PostEvent struct {
	Type      string    `json:"type"`
	PostID    string    `json:"post_id"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}
