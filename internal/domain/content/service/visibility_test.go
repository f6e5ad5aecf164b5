package service

import (
	"context"
	"testing"

	"vidtube/internal/domain/content/model"
	"vidtube/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playlistRow(owner string, published bool, views int64) model.PlaylistVideoRow {
	return model.PlaylistVideoRow{VideoView: model.VideoView{
		ID:          newID(),
		IsPublished: published,
		Views:       views,
		Owner:       model.OwnerSummary{ID: owner},
	}}
}

func TestShapePlaylistVideos(t *testing.T) {
	f := NewVisibilityFilter(newMemoryStore())
	owner, viewer := newID(), newID()
	playlist := &model.Playlist{OwnerID: owner, Name: "mix"}
	playlist.ID = newID()

	rows := []model.PlaylistVideoRow{
		playlistRow(owner, true, 10),
		playlistRow(newID(), false, 5),
		playlistRow(owner, false, 7),
	}

	t.Run("owner sees unpublished videos", func(t *testing.T) {
		view := f.ShapePlaylistVideos(owner, playlist, rows)
		assert.Equal(t, 3, view.TotalVideos)
		assert.Equal(t, int64(22), view.TotalViews)
	})

	t.Run("others see published only and counts follow the filter", func(t *testing.T) {
		view := f.ShapePlaylistVideos(viewer, playlist, rows)
		assert.Equal(t, 1, view.TotalVideos)
		assert.Equal(t, int64(10), view.TotalViews)
		require.Len(t, view.Videos, 1)
		assert.True(t, view.Videos[0].IsPublished)
	})

	t.Run("empty playlist", func(t *testing.T) {
		view := f.ShapePlaylistVideos(viewer, playlist, nil)
		assert.NotNil(t, view.Videos)
		assert.Zero(t, view.TotalVideos)
	})
}

func TestShapeVideoList(t *testing.T) {
	f := NewVisibilityFilter(newMemoryStore())
	owner := newID()
	videos := []model.VideoView{
		{ID: "1", IsPublished: true, Owner: model.OwnerSummary{ID: newID()}},
		{ID: "2", IsPublished: false, Owner: model.OwnerSummary{ID: owner}},
		{ID: "3", IsPublished: false, Owner: model.OwnerSummary{ID: newID()}},
	}

	assert.Len(t, f.ShapeVideoList(owner, videos), 2)
	assert.Len(t, f.ShapeVideoList("", videos), 1)
}

func TestShapeChannelProfile(t *testing.T) {
	f := NewVisibilityFilter(newMemoryStore())
	profile := &model.ChannelProfile{ID: newID(), Username: "alice", Email: "alice@example.com"}

	assert.Equal(t, "alice@example.com", f.ShapeChannelProfile(profile.ID, profile).Email)
	assert.Empty(t, f.ShapeChannelProfile(newID(), profile).Email)
	assert.Empty(t, f.ShapeChannelProfile("", profile).Email)
	// 原对象不被修改
	assert.Equal(t, "alice@example.com", profile.Email)
}

func TestShapeComments(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	f := NewVisibilityFilter(store)
	a, b := store.addUser(), store.addUser()

	t.Run("unpublished video hides comments from others", func(t *testing.T) {
		video := store.addVideo(a, false)
		comments := []model.CommentView{{ID: "c"}}

		_, err := f.ShapeComments(ctx, b, model.VideoTarget(video.ID), comments)
		assert.ErrorIs(t, err, apperror.ErrNotFound)

		got, err := f.ShapeComments(ctx, a, model.VideoTarget(video.ID), comments)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("missing parent", func(t *testing.T) {
		_, err := f.ShapeComments(ctx, a, model.CommunityPostTarget(newID()), nil)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("zero comments is an empty list", func(t *testing.T) {
		post := store.addPost(a)
		got, err := f.ShapeComments(ctx, b, model.CommunityPostTarget(post.ID), nil)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestOwnershipGuard(t *testing.T) {
	var g OwnershipGuard
	owner := newID()
	video := &model.Video{OwnerID: owner}

	assert.True(t, g.CanMutate(owner, video))
	assert.False(t, g.CanMutate(newID(), video))
	assert.False(t, g.CanMutate("", &model.Video{}))

	assert.True(t, g.CanViewVideo(owner, video))
	assert.False(t, g.CanViewVideo(newID(), video))
	video.IsPublished = true
	assert.True(t, g.CanViewVideo("", video))

	err := g.RequireOwner(newID(), video, "update this video")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.NoError(t, g.RequireOwner(owner, video, "update this video"))
}
