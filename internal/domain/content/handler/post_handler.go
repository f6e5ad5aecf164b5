package handler

import (
	"net/http"

	"vidtube/internal/domain/content/service"
	"vidtube/internal/pkg/middleware"
	"vidtube/pkg/response"
	"vidtube/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CommunityPostHandler 社区动态处理器
type CommunityPostHandler struct {
	service service.CommunityPostService
}

// NewCommunityPostHandler 创建处理器
func NewCommunityPostHandler(service service.CommunityPostService) *CommunityPostHandler {
	return &CommunityPostHandler{service: service}
}

// ContentInput 动态、评论共用的内容输入
type ContentInput struct {
	Content string `json:"content" binding:"required"`
}

// Create 发布动态
func (h *CommunityPostHandler) Create(c *gin.Context) {
	var input ContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.service.Create(c.Request.Context(), middleware.CurrentUserID(c), input.Content)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, post)
}

// ListMine 当前用户的动态
func (h *CommunityPostHandler) ListMine(c *gin.Context) {
	h.list(c, middleware.CurrentUserID(c))
}

// ListByUser 指定用户的动态
func (h *CommunityPostHandler) ListByUser(c *gin.Context) {
	h.list(c, c.Param("userId"))
}

func (h *CommunityPostHandler) list(c *gin.Context, userID string) {
	var page utils.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.ListByUser(c.Request.Context(), middleware.CurrentUserID(c), userID, page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

// Update 修改动态
func (h *CommunityPostHandler) Update(c *gin.Context) {
	var input ContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	post, err := h.service.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("communityPostId"), input.Content)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, post)
}

// Delete 删除动态并级联清理
func (h *CommunityPostHandler) Delete(c *gin.Context) {
	report, err := h.service.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("communityPostId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, report)
}
