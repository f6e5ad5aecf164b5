package handler

import (
	"net/http"

	"vidtube/internal/domain/content/service"
	"vidtube/internal/pkg/middleware"
	"vidtube/pkg/response"

	"github.com/gin-gonic/gin"
)

// PlaylistHandler 播放列表处理器
type PlaylistHandler struct {
	service service.PlaylistService
}

// NewPlaylistHandler 创建处理器
func NewPlaylistHandler(service service.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{service: service}
}

// CreatePlaylistInput 创建播放列表输入
type CreatePlaylistInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// UpdatePlaylistInput 更新播放列表输入
type UpdatePlaylistInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create 创建播放列表
func (h *PlaylistHandler) Create(c *gin.Context) {
	var input CreatePlaylistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	playlist, err := h.service.Create(c.Request.Context(), middleware.CurrentUserID(c), input.Name, input.Description)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, playlist)
}

// ListByUser 用户的播放列表
func (h *PlaylistHandler) ListByUser(c *gin.Context) {
	playlists, err := h.service.ListByUser(c.Request.Context(), middleware.CurrentUserID(c), c.Param("userId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, playlists)
}

// Get 播放列表详情
func (h *PlaylistHandler) Get(c *gin.Context) {
	playlist, err := h.service.Get(c.Request.Context(), middleware.CurrentUserID(c), c.Param("playlistId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, playlist)
}

// Update 修改名称、描述
func (h *PlaylistHandler) Update(c *gin.Context) {
	var input UpdatePlaylistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	playlist, err := h.service.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("playlistId"), input.Name, input.Description)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, playlist)
}

// Delete 删除播放列表
func (h *PlaylistHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("playlistId")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{})
}

// AddVideo 添加视频
func (h *PlaylistHandler) AddVideo(c *gin.Context) {
	playlist, err := h.service.AddVideo(c.Request.Context(), middleware.CurrentUserID(c), c.Param("playlistId"), c.Param("videoId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, playlist)
}

// RemoveVideo 移除视频
func (h *PlaylistHandler) RemoveVideo(c *gin.Context) {
	playlist, err := h.service.RemoveVideo(c.Request.Context(), middleware.CurrentUserID(c), c.Param("playlistId"), c.Param("videoId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, playlist)
}
