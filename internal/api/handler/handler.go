package handler

import "github.com/d60-Lab/feed-service/internal/service"

type Handler struct {
	feedService     service.FeedService
	defaultPageSize int
	maxPageSize     int
}

func New(feedService service.FeedService, defaultPageSize, maxPageSize int) *Handler {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &Handler{feedService: feedService, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}
