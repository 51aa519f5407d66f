package service

import (
	"context"
	"errors"
	"time"

	"github.com/d60-Lab/feed-service/internal/client"
	"github.com/d60-Lab/feed-service/internal/repository"
)

// ErrFeedNotFound 首页为空：用户不存在或从未收到过任何帖子
var ErrFeedNotFound = errors.New("feed not found")

// TimelinePager 时间线读取面
type TimelinePager interface {
	Page(ctx context.Context, owner, cursor string, pageSize int) (*repository.TimelinePage, error)
}

// PostLookup 内容服务批量读取面
type PostLookup interface {
	GetPostsByIDs(ctx context.Context, ids []string, token string) ([]client.Post, error)
}

// ProfileLookup 用户服务批量读取面
type ProfileLookup interface {
	GetProfilesByUsernames(ctx context.Context, usernames []string) ([]client.Profile, error)
}

// EnrichedPost 帖子主体 + 作者资料，读取时拼装，不落地
type EnrichedPost struct {
	PostID                  string    `json:"post_id"`
	Author                  string    `json:"author"`
	Content                 string    `json:"content"`
	CreatedAt               time.Time `json:"created_at"`
	AuthorDisplayName       string    `json:"author_display_name"`
	AuthorProfilePictureURL string    `json:"author_profile_picture_url"`
}

// FeedPage 一页 feed 响应
type FeedPage struct {
	Content    []EnrichedPost `json:"content"`
	IsLast     bool           `json:"is_last"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type FeedService interface {
	// GetFeed 读取一页时间线并拼装帖子与作者资料；token 透传给内容服务
	GetFeed(ctx context.Context, username, cursor string, pageSize int, token string) (*FeedPage, error)
}

type feedService struct {
	store    TimelinePager
	posts    PostLookup
	profiles ProfileLookup
}

func NewFeedService(store TimelinePager, posts PostLookup, profiles ProfileLookup) FeedService {
	return &feedService{store: store, posts: posts, profiles: profiles}
}

// GetFeed 三步串行：读存储页 → 批量取帖子 → 批量取资料。
// 每步依赖上一步输出，不可并行；任一批量调用失败则整页失败，不返回半成品。
func (s *feedService) GetFeed(ctx context.Context, username, cursor string, pageSize int, token string) (*FeedPage, error) {
	page, err := s.store.Page(ctx, username, cursor, pageSize)
	if err != nil {
		return nil, err
	}
	if len(page.Entries) == 0 {
		if cursor == "" {
			// 首页为空视为 not found，翻到末尾之后的空页不是错误
			return nil, ErrFeedNotFound
		}
		return &FeedPage{Content: []EnrichedPost{}, IsLast: true}, nil
	}

	// 去重保序取 postRef，一次批量调用
	ids := make([]string, 0, len(page.Entries))
	seenID := make(map[string]bool, len(page.Entries))
	for _, e := range page.Entries {
		if !seenID[e.PostID] {
			seenID[e.PostID] = true
			ids = append(ids, e.PostID)
		}
	}
	posts, err := s.posts.GetPostsByIDs(ctx, ids, token)
	if err != nil {
		return nil, err
	}
	postByID := make(map[string]client.Post, len(posts))
	for _, p := range posts {
		postByID[p.ID] = p
	}

	// 去重取作者名，一次批量调用
	authors := make([]string, 0, len(posts))
	seenAuthor := make(map[string]bool, len(posts))
	for _, p := range posts {
		if !seenAuthor[p.Author] {
			seenAuthor[p.Author] = true
			authors = append(authors, p.Author)
		}
	}
	profByUser := make(map[string]client.Profile, len(authors))
	if len(authors) > 0 {
		profiles, err := s.profiles.GetProfilesByUsernames(ctx, authors)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			profByUser[p.Username] = p
		}
	}

	// 本地 map join，保持存储页顺序；已删除的帖子（查不到主体）跳过
	content := make([]EnrichedPost, 0, len(page.Entries))
	for _, e := range page.Entries {
		post, ok := postByID[e.PostID]
		if !ok {
			continue
		}
		prof := profByUser[post.Author]
		content = append(content, EnrichedPost{
			PostID:                  post.ID,
			Author:                  post.Author,
			Content:                 post.Content,
			CreatedAt:               post.CreatedAt,
			AuthorDisplayName:       prof.DisplayName,
			AuthorProfilePictureURL: prof.ProfilePictureURL,
		})
	}

	return &FeedPage{
		Content:    content,
		IsLast:     !page.HasMore,
		NextCursor: page.NextCursor,
	}, nil
}
