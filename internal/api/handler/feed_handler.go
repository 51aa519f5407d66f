package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/feed-service/internal/api/middleware"
	"github.com/d60-Lab/feed-service/internal/client"
	"github.com/d60-Lab/feed-service/internal/repository"
	"github.com/d60-Lab/feed-service/internal/service"
	"github.com/d60-Lab/feed-service/pkg/response"
)

// GetFeed 读取某用户的 feed 页（游标分页）
// @Summary 读取用户 feed
// @Tags feed
// @Produce json
// @Param username path string true "用户名"
// @Param cursor query string false "续读游标（上一页响应原样回传）"
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=service.FeedPage}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/feed/{username} [get]
func (h *Handler) GetFeed(c *gin.Context) {
	username := c.Param("username")
	cursor := c.Query("cursor")
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.defaultPageSize)))
	if err != nil || pageSize < 1 {
		response.BadRequest(c, "invalid page_size")
		return
	}
	if pageSize > h.maxPageSize {
		pageSize = h.maxPageSize
	}

	page, err := h.feedService.GetFeed(c.Request.Context(), username, cursor, pageSize, middleware.Token(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFeedNotFound):
			response.NotFound(c, "feed not found")
		case errors.Is(err, repository.ErrBadCursor):
			response.BadRequest(c, err.Error())
		case errors.Is(err, client.ErrUnableToGetPosts), errors.Is(err, client.ErrUnableToGetUsers):
			response.BadGateway(c, err)
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Success(c, page)
}
