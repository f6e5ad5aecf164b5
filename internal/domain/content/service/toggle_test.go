package service

import (
	"context"
	"sync"
	"testing"

	"vidtube/internal/domain/content/model"
	"vidtube/pkg/apperror"
	"vidtube/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestToggleEngine(store *memoryStore) (*ToggleEngine, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewToggleEngine(store, UUIDValidator{}, zap.NewNop(), metrics.NewCollector(reg)), reg
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()

	t.Run("created then removed then created", func(t *testing.T) {
		store := newMemoryStore()
		engine, _ := newTestToggleEngine(store)
		a, b := store.addUser(), store.addUser()
		video := store.addVideo(a, true)
		target := model.VideoTarget(video.ID)

		res, err := engine.ToggleLike(ctx, b, target)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreated, res.Outcome)
		assert.True(t, res.Created())

		res, err = engine.ToggleLike(ctx, b, target)
		require.NoError(t, err)
		assert.Equal(t, OutcomeRemoved, res.Outcome)
		assert.Equal(t, b, res.Row.LikerID)
		assert.Equal(t, target, res.Row.Target())

		res, err = engine.ToggleLike(ctx, b, target)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreated, res.Outcome)
		assert.Equal(t, 1, store.likeCount(target))
	})

	t.Run("unpublished video is not found even for owner", func(t *testing.T) {
		store := newMemoryStore()
		engine, _ := newTestToggleEngine(store)
		a := store.addUser()
		video := store.addVideo(a, false)

		for _, actor := range []string{a, store.addUser()} {
			_, err := engine.ToggleLike(ctx, actor, model.VideoTarget(video.ID))
			assert.ErrorIs(t, err, apperror.ErrNotFound)
		}
		assert.Zero(t, store.likeCount(model.VideoTarget(video.ID)))
	})

	t.Run("missing target", func(t *testing.T) {
		store := newMemoryStore()
		engine, _ := newTestToggleEngine(store)

		_, err := engine.ToggleLike(ctx, store.addUser(), model.CommunityPostTarget(newID()))
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		store := newMemoryStore()
		engine, _ := newTestToggleEngine(store)

		_, err := engine.ToggleLike(ctx, store.addUser(), model.VideoTarget("not-an-id"))
		assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

		_, err = engine.ToggleLike(ctx, store.addUser(), model.Target{Kind: "channel", ID: newID()})
		assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
	})

	t.Run("comment on unpublished video is not found", func(t *testing.T) {
		store := newMemoryStore()
		engine, _ := newTestToggleEngine(store)
		a := store.addUser()
		video := store.addVideo(a, true)
		comment := store.addComment(a, model.VideoTarget(video.ID))
		store.videos[video.ID].IsPublished = false

		_, err := engine.ToggleLike(ctx, store.addUser(), model.CommentTarget(comment.ID))
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("comment on community post", func(t *testing.T) {
		store := newMemoryStore()
		engine, _ := newTestToggleEngine(store)
		a := store.addUser()
		post := store.addPost(a)
		comment := store.addComment(a, model.CommunityPostTarget(post.ID))

		res, err := engine.ToggleLike(ctx, store.addUser(), model.CommentTarget(comment.ID))
		require.NoError(t, err)
		assert.True(t, res.Created())
	})

	t.Run("storage failure is internal", func(t *testing.T) {
		store := newMemoryStore()
		engine, _ := newTestToggleEngine(store)
		video := store.addVideo(store.addUser(), true)
		store.fail["FindAndDeleteLike"] = errStorage

		_, err := engine.ToggleLike(ctx, store.addUser(), model.VideoTarget(video.ID))
		assert.ErrorIs(t, err, apperror.ErrInternal)
	})

	t.Run("records toggle metrics", func(t *testing.T) {
		store := newMemoryStore()
		engine, reg := newTestToggleEngine(store)
		video := store.addVideo(store.addUser(), true)
		actor := store.addUser()

		_, _ = engine.ToggleLike(ctx, actor, model.VideoTarget(video.ID))
		_, _ = engine.ToggleLike(ctx, actor, model.VideoTarget(video.ID))

		count, err := testutil.GatherAndCount(reg, "toggles_total")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestToggleLikeConcurrent(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	engine, _ := newTestToggleEngine(store)
	video := store.addVideo(store.addUser(), true)
	actor := store.addUser()
	target := model.VideoTarget(video.ID)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.ToggleLike(ctx, actor, target); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.LessOrEqual(t, store.likeCount(target), 1)
}

func TestToggleSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("self subscription is forbidden and creates nothing", func(t *testing.T) {
		store := newMemoryStore()
		engine, _ := newTestToggleEngine(store)
		a := store.addUser()

		_, err := engine.ToggleSubscription(ctx, a, a)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
		assert.Empty(t, store.subs)
	})

	t.Run("missing channel", func(t *testing.T) {
		store := newMemoryStore()
		engine, _ := newTestToggleEngine(store)

		_, err := engine.ToggleSubscription(ctx, store.addUser(), newID())
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("toggle cycle", func(t *testing.T) {
		store := newMemoryStore()
		engine, _ := newTestToggleEngine(store)
		a, b := store.addUser(), store.addUser()

		res, err := engine.ToggleSubscription(ctx, a, b)
		require.NoError(t, err)
		assert.True(t, res.Created())
		assert.Equal(t, b, res.Row.ChannelID)

		res, err = engine.ToggleSubscription(ctx, a, b)
		require.NoError(t, err)
		assert.Equal(t, OutcomeRemoved, res.Outcome)
		assert.Empty(t, store.subs)
	})
}
