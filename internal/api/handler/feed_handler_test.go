package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feed-service/internal/client"
	"github.com/d60-Lab/feed-service/internal/repository"
	"github.com/d60-Lab/feed-service/internal/service"
)

type stubFeedService struct {
	page        *service.FeedPage
	err         error
	gotUsername string
	gotCursor   string
	gotPageSize int
}

func (s *stubFeedService) GetFeed(_ context.Context, username, cursor string, pageSize int, _ string) (*service.FeedPage, error) {
	s.gotUsername = username
	s.gotCursor = cursor
	s.gotPageSize = pageSize
	if s.err != nil {
		return nil, s.err
	}
	return s.page, nil
}

func setupRouter(svc service.FeedService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc, 10, 100)
	r.GET("/api/v1/feed/:username", h.GetFeed)
	return r
}

func TestGetFeedOK(t *testing.T) {
	svc := &stubFeedService{page: &service.FeedPage{
		Content:    []service.EnrichedPost{{PostID: "p1", Author: "bob"}},
		IsLast:     false,
		NextCursor: "abc",
	}}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed/alice?cursor=prev&page_size=5", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", svc.gotUsername)
	assert.Equal(t, "prev", svc.gotCursor)
	assert.Equal(t, 5, svc.gotPageSize)

	var resp struct {
		Code int              `json:"code"`
		Data service.FeedPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	require.Len(t, resp.Data.Content, 1)
	assert.Equal(t, "p1", resp.Data.Content[0].PostID)
	assert.Equal(t, "abc", resp.Data.NextCursor)
	assert.False(t, resp.Data.IsLast)
}

func TestGetFeedNotFound(t *testing.T) {
	r := setupRouter(&stubFeedService{err: service.ErrFeedNotFound})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/feed/ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFeedBadCursor(t *testing.T) {
	r := setupRouter(&stubFeedService{err: repository.ErrBadCursor})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/feed/alice?cursor=junk", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetFeedUpstreamFailure(t *testing.T) {
	r := setupRouter(&stubFeedService{err: client.ErrUnableToGetPosts})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/feed/alice", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetFeedInvalidPageSize(t *testing.T) {
	r := setupRouter(&stubFeedService{page: &service.FeedPage{}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/feed/alice?page_size=zero", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetFeedCapsPageSize(t *testing.T) {
	svc := &stubFeedService{page: &service.FeedPage{IsLast: true}}
	r := setupRouter(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/feed/alice?page_size=9999", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, svc.gotPageSize)
}
