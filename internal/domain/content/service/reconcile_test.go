package service

import (
	"context"
	"sync"
	"testing"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/pkg/uploader"
	"vidtube/internal/pkg/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSweepRepository is a mock of repository.SweepRepository
type MockSweepRepository struct {
	mock.Mock
}

func (m *MockSweepRepository) SweepOrphans(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

type memoryDeadLetter struct {
	mu    sync.Mutex
	tasks []worker.CleanupTask
}

func (d *memoryDeadLetter) Push(ctx context.Context, task worker.CleanupTask) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task)
	return nil
}

func (d *memoryDeadLetter) Drain(ctx context.Context, max int) ([]worker.CleanupTask, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if max > len(d.tasks) {
		max = len(d.tasks)
	}
	out := d.tasks[:max]
	d.tasks = append([]worker.CleanupTask(nil), d.tasks[max:]...)
	return out, nil
}

func TestReconcilerProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("purges dependents of a deleted parent", func(t *testing.T) {
		store := newMemoryStore()
		blob := new(MockBlobStore)
		cascade := newTestCascade(store, blob, nil)
		r := NewReconciler(store, new(MockSweepRepository), cascade, blob, nil, zap.NewNop(), nil)

		a := store.addUser()
		videoID := newID()
		orphan := store.addComment(a, model.VideoTarget(videoID))
		store.addLike(a, model.CommentTarget(orphan.ID))
		store.addLike(a, model.VideoTarget(videoID))

		blob.On("Destroy", mock.Anything, uploader.CategoryVideo, "https://cdn/video/x.mp4").Return(nil)

		err := r.Process(ctx, worker.CleanupTask{
			Kind:  "video",
			ID:    videoID,
			Media: []worker.MediaRef{{Category: "video", URL: "https://cdn/video/x.mp4"}},
		})
		require.NoError(t, err)
		assert.False(t, store.hasComment(orphan.ID))
		assert.Zero(t, store.likeCount(model.VideoTarget(videoID)))
		assert.Zero(t, store.likeCount(model.CommentTarget(orphan.ID)))
		blob.AssertExpectations(t)
	})

	t.Run("never touches a live parent", func(t *testing.T) {
		store := newMemoryStore()
		r := NewReconciler(store, new(MockSweepRepository), newTestCascade(store, nil, nil), nil, nil, zap.NewNop(), nil)

		a := store.addUser()
		post := store.addPost(a)
		comment := store.addComment(a, model.CommunityPostTarget(post.ID))

		err := r.Process(ctx, worker.CleanupTask{Kind: "community_post", ID: post.ID})
		require.NoError(t, err)
		assert.True(t, store.hasComment(comment.ID))
	})

	t.Run("failure is returned for retry", func(t *testing.T) {
		store := newMemoryStore()
		r := NewReconciler(store, new(MockSweepRepository), newTestCascade(store, nil, nil), nil, nil, zap.NewNop(), nil)
		store.fail["ListCommentIDs"] = errStorage

		err := r.Process(ctx, worker.CleanupTask{Kind: "video", ID: newID()})
		assert.ErrorIs(t, err, errStorage)
	})
}

func TestReconcilerSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("sweeps orphans and replays dead letters", func(t *testing.T) {
		store := newMemoryStore()
		sweeper := new(MockSweepRepository)
		dl := &memoryDeadLetter{}
		r := NewReconciler(store, sweeper, newTestCascade(store, nil, nil), nil, dl, zap.NewNop(), nil)

		a := store.addUser()
		postID := newID()
		orphan := store.addComment(a, model.CommunityPostTarget(postID))
		require.NoError(t, dl.Push(ctx, worker.CleanupTask{Kind: "community_post", ID: postID}))

		sweeper.On("SweepOrphans", mock.Anything).Return(map[string]int64{"dangling_video_likes": 3}, nil)

		result, err := r.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.Orphans["dangling_video_likes"])
		assert.Equal(t, 1, result.DeadLetters)
		assert.Zero(t, result.DeadLettersRetry)
		assert.False(t, store.hasComment(orphan.ID))
	})

	t.Run("failed dead letter is pushed back", func(t *testing.T) {
		store := newMemoryStore()
		sweeper := new(MockSweepRepository)
		dl := &memoryDeadLetter{}
		r := NewReconciler(store, sweeper, newTestCascade(store, nil, nil), nil, dl, zap.NewNop(), nil)
		store.fail["Exists"] = errStorage

		require.NoError(t, dl.Push(ctx, worker.CleanupTask{Kind: "video", ID: newID()}))
		sweeper.On("SweepOrphans", mock.Anything).Return(map[string]int64{}, nil)

		result, err := r.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.DeadLettersRetry)
		require.Len(t, dl.tasks, 1)
		assert.Equal(t, 1, dl.tasks[0].Retry)
	})

	t.Run("sweep error stops before dead letters", func(t *testing.T) {
		store := newMemoryStore()
		sweeper := new(MockSweepRepository)
		dl := &memoryDeadLetter{}
		r := NewReconciler(store, sweeper, newTestCascade(store, nil, nil), nil, dl, zap.NewNop(), nil)
		require.NoError(t, dl.Push(ctx, worker.CleanupTask{Kind: "video", ID: newID()}))

		sweeper.On("SweepOrphans", mock.Anything).Return(nil, errStorage)

		_, err := r.Sweep(ctx)
		assert.ErrorIs(t, err, errStorage)
		assert.Len(t, dl.tasks, 1)
	})
}
