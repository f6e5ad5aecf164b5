package handler

import (
	"net/http"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/service"
	"vidtube/internal/pkg/middleware"
	"vidtube/pkg/response"
	"vidtube/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CommentHandler 评论处理器
type CommentHandler struct {
	service service.CommentService
}

// NewCommentHandler 创建处理器
func NewCommentHandler(service service.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

// ListForVideo 视频评论
func (h *CommentHandler) ListForVideo(c *gin.Context) {
	h.list(c, model.VideoTarget(c.Param("videoId")))
}

// ListForPost 动态评论
func (h *CommentHandler) ListForPost(c *gin.Context) {
	h.list(c, model.CommunityPostTarget(c.Param("communityPostId")))
}

// AddToVideo 评论视频
func (h *CommentHandler) AddToVideo(c *gin.Context) {
	h.add(c, model.VideoTarget(c.Param("videoId")))
}

// AddToPost 评论动态
func (h *CommentHandler) AddToPost(c *gin.Context) {
	h.add(c, model.CommunityPostTarget(c.Param("communityPostId")))
}

func (h *CommentHandler) list(c *gin.Context, parent model.Target) {
	var page utils.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.List(c.Request.Context(), middleware.CurrentUserID(c), parent, page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CommentHandler) add(c *gin.Context, parent model.Target) {
	var input ContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	comment, err := h.service.Add(c.Request.Context(), middleware.CurrentUserID(c), parent, input.Content)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, comment)
}

// Update 修改评论
func (h *CommentHandler) Update(c *gin.Context) {
	var input ContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	comment, err := h.service.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("commentId"), input.Content)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, comment)
}

// Delete 删除评论及其点赞
func (h *CommentHandler) Delete(c *gin.Context) {
	report, err := h.service.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("commentId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, report)
}
