package service

import (
	"context"
	"testing"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/pkg/uploader"
	"vidtube/pkg/apperror"
	"vidtube/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCascade(store *memoryStore, blob uploader.BlobStore, queue CleanupQueue) *CascadeDeleter {
	return NewCascadeDeleter(store, blob, queue, UUIDValidator{}, zap.NewNop(), metrics.NewCollector(prometheus.NewRegistry()))
}

func TestCascadeDeleteVideo(t *testing.T) {
	ctx := context.Background()

	t.Run("removes likes comments and comment likes", func(t *testing.T) {
		store := newMemoryStore()
		blob := new(MockBlobStore)
		queue := &recordingQueue{}
		cascade := newTestCascade(store, blob, queue)

		a, b, c := store.addUser(), store.addUser(), store.addUser()
		video := store.addVideo(a, true)
		vt := model.VideoTarget(video.ID)
		store.addLike(b, vt)
		store.addLike(c, vt)
		c1 := store.addComment(b, vt)
		c2 := store.addComment(c, vt)
		store.addLike(a, model.CommentTarget(c1.ID))
		store.addLike(c, model.CommentTarget(c2.ID))
		other := store.addVideo(a, true)
		store.addLike(b, model.VideoTarget(other.ID))

		blob.On("Destroy", mock.Anything, uploader.CategoryVideo, video.VideoFile).Return(nil)
		blob.On("Destroy", mock.Anything, uploader.CategoryImage, video.Thumbnail).Return(nil)

		report, err := cascade.DeleteVideo(ctx, a, video.ID)
		require.NoError(t, err)
		assert.True(t, report.Clean())
		assert.Equal(t, int64(2), report.LikesDeleted)
		assert.Equal(t, int64(2), report.CommentsDeleted)
		assert.Equal(t, int64(2), report.CommentLikesDeleted)
		assert.Equal(t, 2, report.MediaReleased)

		assert.Zero(t, store.likeCount(vt))
		assert.Zero(t, store.likeCount(model.CommentTarget(c1.ID)))
		assert.False(t, store.hasComment(c1.ID))
		assert.False(t, store.hasComment(c2.ID))
		assert.Equal(t, 1, store.likeCount(model.VideoTarget(other.ID)))
		assert.Empty(t, queue.all())
		blob.AssertExpectations(t)
	})

	t.Run("non owner is forbidden and nothing is touched", func(t *testing.T) {
		store := newMemoryStore()
		blob := new(MockBlobStore)
		cascade := newTestCascade(store, blob, &recordingQueue{})

		a, b := store.addUser(), store.addUser()
		video := store.addVideo(b, true)
		vt := model.VideoTarget(video.ID)
		store.addLike(a, vt)
		comment := store.addComment(a, vt)

		_, err := cascade.DeleteVideo(ctx, a, video.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		_, err = store.GetVideo(ctx, video.ID)
		assert.NoError(t, err)
		assert.Equal(t, 1, store.likeCount(vt))
		assert.True(t, store.hasComment(comment.ID))
		blob.AssertNotCalled(t, "Destroy", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing video", func(t *testing.T) {
		store := newMemoryStore()
		cascade := newTestCascade(store, nil, nil)

		_, err := cascade.DeleteVideo(ctx, store.addUser(), newID())
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("primary delete failure is internal and dependents stay", func(t *testing.T) {
		store := newMemoryStore()
		cascade := newTestCascade(store, new(MockBlobStore), nil)
		a := store.addUser()
		video := store.addVideo(a, true)
		store.addLike(store.addUser(), model.VideoTarget(video.ID))
		store.fail["DeleteVideo"] = errStorage

		_, err := cascade.DeleteVideo(ctx, a, video.ID)
		assert.ErrorIs(t, err, apperror.ErrInternal)
		assert.Equal(t, 1, store.likeCount(model.VideoTarget(video.ID)))
	})

	t.Run("sub step failures still succeed and are enqueued", func(t *testing.T) {
		store := newMemoryStore()
		blob := new(MockBlobStore)
		queue := &recordingQueue{}
		cascade := newTestCascade(store, blob, queue)

		a := store.addUser()
		video := store.addVideo(a, true)
		vt := model.VideoTarget(video.ID)
		keep := store.addComment(a, vt)
		gone := store.addComment(a, vt)
		store.addLike(a, model.CommentTarget(keep.ID))
		store.failLikesOf[model.CommentTarget(keep.ID)] = errStorage

		blob.On("Destroy", mock.Anything, uploader.CategoryVideo, video.VideoFile).Return(errStorage)
		blob.On("Destroy", mock.Anything, uploader.CategoryImage, video.Thumbnail).Return(nil)

		report, err := cascade.DeleteVideo(ctx, a, video.ID)
		require.NoError(t, err)
		assert.False(t, report.Clean())
		assert.ElementsMatch(t, []string{stepCommentLikes, stepMedia}, report.FailedSteps)
		assert.Equal(t, 1, report.CommentsSkipped)

		// 点赞删除失败的评论保留，等待补偿
		assert.True(t, store.hasComment(keep.ID))
		assert.False(t, store.hasComment(gone.ID))

		tasks := queue.all()
		require.Len(t, tasks, 1)
		assert.Equal(t, "video", tasks[0].Kind)
		assert.Equal(t, video.ID, tasks[0].ID)
		require.Len(t, tasks[0].Media, 1)
		assert.Equal(t, video.VideoFile, tasks[0].Media[0].URL)
	})

	t.Run("foreign media url is skipped", func(t *testing.T) {
		store := newMemoryStore()
		blob := new(MockBlobStore)
		queue := &recordingQueue{}
		cascade := newTestCascade(store, blob, queue)
		a := store.addUser()
		video := store.addVideo(a, true)

		blob.On("Destroy", mock.Anything, mock.Anything, mock.Anything).Return(uploader.ErrForeignURL)

		report, err := cascade.DeleteVideo(ctx, a, video.ID)
		require.NoError(t, err)
		assert.True(t, report.Clean())
		assert.Empty(t, queue.all())
	})
}

func TestCascadeDeleteCommunityPost(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	cascade := newTestCascade(store, nil, &recordingQueue{})

	// A 发动态，B 评论，C 点赞评论，A 删除动态
	a, b, c := store.addUser(), store.addUser(), store.addUser()
	post := store.addPost(a)
	c1 := store.addComment(b, model.CommunityPostTarget(post.ID))
	store.addLike(c, model.CommentTarget(c1.ID))
	store.addLike(c, model.CommunityPostTarget(post.ID))

	report, err := cascade.DeleteCommunityPost(ctx, a, post.ID)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	_, err = store.GetComment(ctx, c1.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Zero(t, store.likeCount(model.CommentTarget(c1.ID)))
	assert.Zero(t, store.likeCount(model.CommunityPostTarget(post.ID)))
}

func TestCascadeDeleteComment(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes comment and its likes", func(t *testing.T) {
		store := newMemoryStore()
		cascade := newTestCascade(store, nil, nil)
		a, b := store.addUser(), store.addUser()
		post := store.addPost(a)
		comment := store.addComment(b, model.CommunityPostTarget(post.ID))
		store.addLike(a, model.CommentTarget(comment.ID))

		report, err := cascade.DeleteComment(ctx, b, comment.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), report.LikesDeleted)
		assert.False(t, store.hasComment(comment.ID))
		assert.Zero(t, store.likeCount(model.CommentTarget(comment.ID)))
	})

	t.Run("parent owner cannot delete other users comment", func(t *testing.T) {
		store := newMemoryStore()
		cascade := newTestCascade(store, nil, nil)
		a, b := store.addUser(), store.addUser()
		post := store.addPost(a)
		comment := store.addComment(b, model.CommunityPostTarget(post.ID))

		_, err := cascade.DeleteComment(ctx, a, comment.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
		assert.True(t, store.hasComment(comment.ID))
	})

	t.Run("listing comments fails", func(t *testing.T) {
		store := newMemoryStore()
		queue := &recordingQueue{}
		cascade := newTestCascade(store, nil, queue)
		a := store.addUser()
		post := store.addPost(a)
		store.fail["ListCommentIDs"] = errStorage

		report, err := cascade.DeleteCommunityPost(ctx, a, post.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{stepListComments}, report.FailedSteps)
		assert.Len(t, queue.all(), 1)
	})
}
