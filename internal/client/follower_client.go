package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// FollowerPage 一页粉丝（由关系链服务产出，不落地）
type FollowerPage struct {
	Items   []string `json:"items"`
	HasMore bool     `json:"has_more"`
}

// FollowerClient 关系链服务客户端
type FollowerClient struct {
	base string
	hc   *http.Client
}

func NewFollowerClient(baseURL string, timeout time.Duration) *FollowerClient {
	return &FollowerClient{base: baseURL, hc: newHTTPClient(timeout)}
}

// GetFollowersPage 按页拉取某作者的粉丝
func (c *FollowerClient) GetFollowersPage(ctx context.Context, username string, page, pageSize int) (*FollowerPage, error) {
	u := fmt.Sprintf("%s/api/v1/users/%s/followers?page=%d&page_size=%d",
		c.base, url.PathEscape(username), page, pageSize)
	var out FollowerPage
	if err := doJSON(ctx, c.hc, http.MethodGet, u, nil, "", &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToGetFollowers, err)
	}
	return &out, nil
}
