package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feed-service/internal/client"
	"github.com/d60-Lab/feed-service/internal/model"
	"github.com/d60-Lab/feed-service/internal/repository"
)

type fakePager struct {
	page      *repository.TimelinePage
	err       error
	gotCursor string
}

func (f *fakePager) Page(_ context.Context, _ string, cursor string, _ int) (*repository.TimelinePage, error) {
	f.gotCursor = cursor
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

type fakePosts struct {
	posts    []client.Post
	err      error
	calls    int
	gotIDs   []string
	gotToken string
}

func (f *fakePosts) GetPostsByIDs(_ context.Context, ids []string, token string) ([]client.Post, error) {
	f.calls++
	f.gotIDs = ids
	f.gotToken = token
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

type fakeProfiles struct {
	profiles     []client.Profile
	err          error
	calls        int
	gotUsernames []string
}

func (f *fakeProfiles) GetProfilesByUsernames(_ context.Context, usernames []string) ([]client.Profile, error) {
	f.calls++
	f.gotUsernames = usernames
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles, nil
}

func entries(owners ...string) []*model.TimelineEntry {
	out := make([]*model.TimelineEntry, len(owners))
	base := time.Now()
	for i, p := range owners {
		out[i] = &model.TimelineEntry{Owner: "alice", PostID: p, Score: base.Add(-time.Duration(i) * time.Minute).UnixNano()}
	}
	return out
}

func TestGetFeedEnrichedPage(t *testing.T) {
	pager := &fakePager{page: &repository.TimelinePage{Entries: entries("p1", "p2")}}
	posts := &fakePosts{posts: []client.Post{
		{ID: "p1", Author: "bob", Content: "later"},
		{ID: "p2", Author: "carol", Content: "earlier"},
	}}
	profiles := &fakeProfiles{profiles: []client.Profile{
		{Username: "bob", DisplayName: "Bob", ProfilePictureURL: "http://img/bob.png"},
		{Username: "carol", DisplayName: "Carol", ProfilePictureURL: "http://img/carol.png"},
	}}
	svc := NewFeedService(pager, posts, profiles)

	page, err := svc.GetFeed(context.Background(), "alice", "", 10, "tok")
	require.NoError(t, err)

	require.Len(t, page.Content, 2)
	assert.Equal(t, "p1", page.Content[0].PostID)
	assert.Equal(t, "p2", page.Content[1].PostID)
	assert.Equal(t, "http://img/bob.png", page.Content[0].AuthorProfilePictureURL)
	assert.Equal(t, "Carol", page.Content[1].AuthorDisplayName)
	assert.True(t, page.IsLast)
	assert.Empty(t, page.NextCursor)

	// 每页各恰好一次批量调用，token 透传给内容服务
	assert.Equal(t, 1, posts.calls)
	assert.Equal(t, 1, profiles.calls)
	assert.Equal(t, []string{"p1", "p2"}, posts.gotIDs)
	assert.Equal(t, "tok", posts.gotToken)
}

func TestGetFeedEmptyFirstPageNotFound(t *testing.T) {
	pager := &fakePager{page: &repository.TimelinePage{}}
	svc := NewFeedService(pager, &fakePosts{}, &fakeProfiles{})

	_, err := svc.GetFeed(context.Background(), "ghost", "", 10, "")
	assert.ErrorIs(t, err, ErrFeedNotFound)
}

func TestGetFeedEmptyCursoredPageIsLast(t *testing.T) {
	pager := &fakePager{page: &repository.TimelinePage{}}
	posts := &fakePosts{}
	svc := NewFeedService(pager, posts, &fakeProfiles{})

	page, err := svc.GetFeed(context.Background(), "alice", "Y3Vyc29y", 10, "")
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.True(t, page.IsLast)
	assert.Empty(t, page.NextCursor)
	// 翻页到末尾之后不再发起批量调用
	assert.Equal(t, 0, posts.calls)
}

func TestGetFeedPostLookupFailureFailsPage(t *testing.T) {
	pager := &fakePager{page: &repository.TimelinePage{Entries: entries("p1")}}
	posts := &fakePosts{err: client.ErrUnableToGetPosts}
	profiles := &fakeProfiles{}
	svc := NewFeedService(pager, posts, profiles)

	page, err := svc.GetFeed(context.Background(), "alice", "", 10, "")
	assert.ErrorIs(t, err, client.ErrUnableToGetPosts)
	assert.Nil(t, page, "no partially populated page on enrichment failure")
	assert.Equal(t, 0, profiles.calls)
}

func TestGetFeedProfileLookupFailureFailsPage(t *testing.T) {
	pager := &fakePager{page: &repository.TimelinePage{Entries: entries("p1")}}
	posts := &fakePosts{posts: []client.Post{{ID: "p1", Author: "bob"}}}
	profiles := &fakeProfiles{err: client.ErrUnableToGetUsers}
	svc := NewFeedService(pager, posts, profiles)

	page, err := svc.GetFeed(context.Background(), "alice", "", 10, "")
	assert.ErrorIs(t, err, client.ErrUnableToGetUsers)
	assert.Nil(t, page)
}

func TestGetFeedOmitsDeletedPost(t *testing.T) {
	pager := &fakePager{page: &repository.TimelinePage{Entries: entries("p1", "p2")}}
	// p1 已被删除：内容服务只返回 p2
	posts := &fakePosts{posts: []client.Post{{ID: "p2", Author: "bob"}}}
	profiles := &fakeProfiles{profiles: []client.Profile{{Username: "bob"}}}
	svc := NewFeedService(pager, posts, profiles)

	page, err := svc.GetFeed(context.Background(), "alice", "", 10, "")
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "p2", page.Content[0].PostID)
}

func TestGetFeedDedupesAuthorsForProfileBatch(t *testing.T) {
	pager := &fakePager{page: &repository.TimelinePage{Entries: entries("p1", "p2", "p3")}}
	posts := &fakePosts{posts: []client.Post{
		{ID: "p1", Author: "bob"},
		{ID: "p2", Author: "bob"},
		{ID: "p3", Author: "carol"},
	}}
	profiles := &fakeProfiles{profiles: []client.Profile{{Username: "bob"}, {Username: "carol"}}}
	svc := NewFeedService(pager, posts, profiles)

	_, err := svc.GetFeed(context.Background(), "alice", "", 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, profiles.gotUsernames)
}

func TestGetFeedPropagatesCursor(t *testing.T) {
	pager := &fakePager{page: &repository.TimelinePage{
		Entries: entries("p1"), HasMore: true, NextCursor: "abc",
	}}
	posts := &fakePosts{posts: []client.Post{{ID: "p1", Author: "bob"}}}
	profiles := &fakeProfiles{profiles: []client.Profile{{Username: "bob"}}}
	svc := NewFeedService(pager, posts, profiles)

	page, err := svc.GetFeed(context.Background(), "alice", "prev-cursor", 10, "")
	require.NoError(t, err)
	assert.Equal(t, "prev-cursor", pager.gotCursor, "cursor passed back verbatim")
	assert.False(t, page.IsLast)
	assert.Equal(t, "abc", page.NextCursor)
}
