package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Profile 用户资料摘要
type Profile struct {
	Username          string `json:"username"`
	DisplayName       string `json:"display_name"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

// ProfileClient 用户服务客户端
type ProfileClient struct {
	base string
	hc   *http.Client
}

func NewProfileClient(baseURL string, timeout time.Duration) *ProfileClient {
	return &ProfileClient{base: baseURL, hc: newHTTPClient(timeout)}
}

// GetProfilesByUsernames 批量拉取用户资料
func (c *ProfileClient) GetProfilesByUsernames(ctx context.Context, usernames []string) ([]Profile, error) {
	var out struct {
		Profiles []Profile `json:"profiles"`
	}
	body := map[string]interface{}{"usernames": usernames}
	if err := doJSON(ctx, c.hc, http.MethodPost, c.base+"/api/v1/profiles/batch", body, "", &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToGetUsers, err)
	}
	return out.Profiles, nil
}
