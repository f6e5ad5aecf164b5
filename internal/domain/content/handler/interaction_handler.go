package handler

import (
	"net/http"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/service"
	"vidtube/internal/pkg/middleware"
	"vidtube/pkg/response"

	"github.com/gin-gonic/gin"
)

// InteractionHandler 点赞、订阅、频道主页处理器
type InteractionHandler struct {
	service service.InteractionService
}

// NewInteractionHandler 创建处理器
func NewInteractionHandler(service service.InteractionService) *InteractionHandler {
	return &InteractionHandler{service: service}
}

// ToggleVideoLike 视频点赞切换
func (h *InteractionHandler) ToggleVideoLike(c *gin.Context) {
	h.toggleLike(c, model.VideoTarget(c.Param("videoId")))
}

// ToggleCommentLike 评论点赞切换
func (h *InteractionHandler) ToggleCommentLike(c *gin.Context) {
	h.toggleLike(c, model.CommentTarget(c.Param("commentId")))
}

// TogglePostLike 动态点赞切换
func (h *InteractionHandler) TogglePostLike(c *gin.Context) {
	h.toggleLike(c, model.CommunityPostTarget(c.Param("communityPostId")))
}

func (h *InteractionHandler) toggleLike(c *gin.Context, target model.Target) {
	result, err := h.service.ToggleLike(c.Request.Context(), middleware.CurrentUserID(c), target)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writeToggle(c, result.Created(), gin.H{"outcome": result.Outcome, "like": result.Row})
}

// LikedVideos 当前用户点赞过的视频
func (h *InteractionHandler) LikedVideos(c *gin.Context) {
	videos, err := h.service.LikedVideos(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, videos)
}

// ToggleSubscription 订阅切换
func (h *InteractionHandler) ToggleSubscription(c *gin.Context) {
	result, err := h.service.ToggleSubscription(c.Request.Context(), middleware.CurrentUserID(c), c.Param("channelId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	writeToggle(c, result.Created(), gin.H{"outcome": result.Outcome, "subscription": result.Row})
}

// Subscribers 频道订阅者，仅频道本人可查看
func (h *InteractionHandler) Subscribers(c *gin.Context) {
	subs, err := h.service.Subscribers(c.Request.Context(), middleware.CurrentUserID(c), c.Param("channelId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, subs)
}

// SubscribedChannels 用户订阅的频道
func (h *InteractionHandler) SubscribedChannels(c *gin.Context) {
	channels, err := h.service.SubscribedChannels(c.Request.Context(), c.Param("subscriberId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, channels)
}

// ChannelProfile 频道主页
func (h *InteractionHandler) ChannelProfile(c *gin.Context) {
	profile, err := h.service.ChannelProfile(c.Request.Context(), middleware.CurrentUserID(c), c.Param("username"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, profile)
}

// writeToggle 新增返回 201，删除返回 200
func writeToggle(c *gin.Context, created bool, data gin.H) {
	if created {
		response.Created(c, data)
		return
	}
	c.JSON(http.StatusOK, response.Response{Code: response.CodeSuccess, Message: "removed", Data: data})
}
