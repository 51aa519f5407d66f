package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Post 帖子主体（内容服务所有，读取时拼装）
type Post struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PostClient 内容服务客户端
type PostClient struct {
	base string
	hc   *http.Client
}

func NewPostClient(baseURL string, timeout time.Duration) *PostClient {
	return &PostClient{base: baseURL, hc: newHTTPClient(timeout)}
}

// GetPostsByIDs 批量拉取帖子；token 为调用方透传的鉴权凭证，可为空
func (c *PostClient) GetPostsByIDs(ctx context.Context, ids []string, token string) ([]Post, error) {
	var out struct {
		Posts []Post `json:"posts"`
	}
	body := map[string]interface{}{"ids": ids}
	if err := doJSON(ctx, c.hc, http.MethodPost, c.base+"/api/v1/posts/batch", body, token, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToGetPosts, err)
	}
	return out.Posts, nil
}
