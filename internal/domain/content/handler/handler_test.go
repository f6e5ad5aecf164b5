package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/service"
	"vidtube/internal/pkg/middleware"
	"vidtube/pkg/apperror"
	"vidtube/pkg/response"
	"vidtube/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockInteractionService is a mock of service.InteractionService
type MockInteractionService struct {
	mock.Mock
}

func (m *MockInteractionService) ToggleLike(ctx context.Context, actorID string, target model.Target) (service.ToggleResult[model.Like], error) {
	args := m.Called(ctx, actorID, target)
	return args.Get(0).(service.ToggleResult[model.Like]), args.Error(1)
}

func (m *MockInteractionService) LikedVideos(ctx context.Context, actorID string) ([]model.VideoView, error) {
	args := m.Called(ctx, actorID)
	return args.Get(0).([]model.VideoView), args.Error(1)
}

func (m *MockInteractionService) ToggleSubscription(ctx context.Context, actorID, channelID string) (service.ToggleResult[model.Subscription], error) {
	args := m.Called(ctx, actorID, channelID)
	return args.Get(0).(service.ToggleResult[model.Subscription]), args.Error(1)
}

func (m *MockInteractionService) Subscribers(ctx context.Context, actorID, channelID string) ([]model.ChannelSummary, error) {
	args := m.Called(ctx, actorID, channelID)
	return args.Get(0).([]model.ChannelSummary), args.Error(1)
}

func (m *MockInteractionService) SubscribedChannels(ctx context.Context, subscriberID string) ([]model.ChannelSummary, error) {
	args := m.Called(ctx, subscriberID)
	return args.Get(0).([]model.ChannelSummary), args.Error(1)
}

func (m *MockInteractionService) ChannelProfile(ctx context.Context, viewerID, username string) (*model.ChannelProfile, error) {
	args := m.Called(ctx, viewerID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChannelProfile), args.Error(1)
}

// MockCommentService is a mock of service.CommentService
type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) Add(ctx context.Context, actorID string, parent model.Target, content string) (*model.Comment, error) {
	args := m.Called(ctx, actorID, parent, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockCommentService) List(ctx context.Context, viewerID string, parent model.Target, page utils.Pagination) (utils.PageResult, error) {
	args := m.Called(ctx, viewerID, parent, page)
	return args.Get(0).(utils.PageResult), args.Error(1)
}

func (m *MockCommentService) Update(ctx context.Context, actorID, commentID, content string) (*model.Comment, error) {
	args := m.Called(ctx, actorID, commentID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockCommentService) Delete(ctx context.Context, actorID, commentID string) (*service.CascadeReport, error) {
	args := m.Called(ctx, actorID, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CascadeReport), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser 模拟认证中间件
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestToggleLikeHandler(t *testing.T) {
	svc := new(MockInteractionService)
	h := NewInteractionHandler(svc)
	r := gin.New()
	r.POST("/likes/toggle/v/:videoId", asUser("u1"), h.ToggleVideoLike)

	like := &model.Like{LikerID: "u1", TargetKind: model.KindVideo, TargetID: "v1"}

	t.Run("created returns 201", func(t *testing.T) {
		svc.On("ToggleLike", mock.Anything, "u1", model.VideoTarget("v1")).
			Return(service.ToggleResult[model.Like]{Outcome: service.OutcomeCreated, Row: like}, nil).Once()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/likes/toggle/v/v1", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("removed returns 200 with the removed row", func(t *testing.T) {
		svc.On("ToggleLike", mock.Anything, "u1", model.VideoTarget("v1")).
			Return(service.ToggleResult[model.Like]{Outcome: service.OutcomeRemoved, Row: like}, nil).Once()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/likes/toggle/v/v1", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"outcome":"removed"`)
		assert.Contains(t, w.Body.String(), `"likedBy":"u1"`)
	})

	t.Run("unpublished video maps to 404", func(t *testing.T) {
		svc.On("ToggleLike", mock.Anything, "u1", model.VideoTarget("v2")).
			Return(service.ToggleResult[model.Like]{}, apperror.NotFound("video", "v2")).Once()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/likes/toggle/v/v2", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, response.ErrResourceNotFound, decode(t, w).Code)
	})
}

func TestToggleSubscriptionHandler(t *testing.T) {
	svc := new(MockInteractionService)
	h := NewInteractionHandler(svc)
	r := gin.New()
	r.POST("/subscriptions/c/:channelId", asUser("u1"), h.ToggleSubscription)

	svc.On("ToggleSubscription", mock.Anything, "u1", "u1").
		Return(service.ToggleResult[model.Subscription]{}, apperror.Forbidden("you cannot subscribe to your own channel"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscriptions/c/u1", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCommentHandler(t *testing.T) {
	svc := new(MockCommentService)
	h := NewCommentHandler(svc)
	r := gin.New()
	r.POST("/comments/cp/:communityPostId", asUser("u1"), h.AddToPost)
	r.DELETE("/comments/c/:commentId", asUser("u1"), h.Delete)

	t.Run("add requires content", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/comments/cp/p1", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("add on post", func(t *testing.T) {
		svc.On("Add", mock.Anything, "u1", model.CommunityPostTarget("p1"), "hello").
			Return(&model.Comment{Content: "hello", OwnerID: "u1"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/comments/cp/p1", strings.NewReader(`{"content":"hello"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("delete by non owner", func(t *testing.T) {
		svc.On("Delete", mock.Anything, "u1", "c9").Return(nil, apperror.Forbidden("only the owner can delete this comment")).Once()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/comments/c/c9", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "only the owner can delete this comment", decode(t, w).Message)
	})

	t.Run("delete succeeds with report", func(t *testing.T) {
		svc.On("Delete", mock.Anything, "u1", "c1").
			Return(&service.CascadeReport{Target: model.CommentTarget("c1"), LikesDeleted: 2}, nil).Once()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/comments/c/c1", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"likesDeleted":2`)
	})
}
