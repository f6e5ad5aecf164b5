package handler

import (
	"net/http"
	"strconv"

	"vidtube/internal/domain/content/service"
	"vidtube/internal/pkg/middleware"
	"vidtube/internal/pkg/uploader"
	"vidtube/pkg/response"

	"github.com/gin-gonic/gin"
)

// VideoHandler 视频处理器
type VideoHandler struct {
	service service.VideoService
	tempDir string
}

// NewVideoHandler 创建处理器
func NewVideoHandler(service service.VideoService, tempDir string) *VideoHandler {
	return &VideoHandler{service: service, tempDir: tempDir}
}

// ListVideosQuery 视频列表查询参数
type ListVideosQuery struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Query    string `form:"query"`
	SortBy   string `form:"sortBy"`
	SortType string `form:"sortType"`
	UserID   string `form:"userId"`
}

// UpdateVideoInput 更新视频输入
type UpdateVideoInput struct {
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
}

// List 视频列表
func (h *VideoHandler) List(c *gin.Context) {
	var q ListVideosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	input := service.ListVideosInput{
		Query:    q.Query,
		SortBy:   q.SortBy,
		SortType: q.SortType,
		UserID:   q.UserID,
	}
	input.Page, input.Limit = q.Page, q.Limit

	page, err := h.service.List(c.Request.Context(), middleware.CurrentUserID(c), input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, page)
}

// Publish 发布视频，multipart: videoFile, thumbnail, title, description, duration
func (h *VideoHandler) Publish(c *gin.Context) {
	videoFile, err := c.FormFile("videoFile")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "videoFile is missing")
		return
	}
	thumbnail, err := c.FormFile("thumbnail")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "thumbnail is missing")
		return
	}
	duration, _ := strconv.ParseFloat(c.PostForm("duration"), 64)

	videoPath, err := uploader.SaveMultipart(videoFile, h.tempDir)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to store upload")
		return
	}
	thumbnailPath, err := uploader.SaveMultipart(thumbnail, h.tempDir)
	if err != nil {
		uploader.Discard(videoPath)
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to store upload")
		return
	}

	video, err := h.service.Publish(c.Request.Context(), middleware.CurrentUserID(c), service.PublishVideoInput{
		Title:         c.PostForm("title"),
		Description:   c.PostForm("description"),
		Duration:      duration,
		VideoPath:     videoPath,
		ThumbnailPath: thumbnailPath,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, video)
}

// Get 视频详情
func (h *VideoHandler) Get(c *gin.Context) {
	video, err := h.service.Get(c.Request.Context(), middleware.CurrentUserID(c), c.Param("videoId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, video)
}

// Update 更新标题、描述，可选上传新封面
func (h *VideoHandler) Update(c *gin.Context) {
	var input UpdateVideoInput
	if err := c.ShouldBind(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	var thumbnailPath string
	if file, err := c.FormFile("thumbnail"); err == nil {
		thumbnailPath, err = uploader.SaveMultipart(file, h.tempDir)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to store upload")
			return
		}
	}

	video, err := h.service.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("videoId"), service.UpdateVideoInput{
		Title:         input.Title,
		Description:   input.Description,
		ThumbnailPath: thumbnailPath,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, video)
}

// Delete 删除视频并级联清理
func (h *VideoHandler) Delete(c *gin.Context) {
	report, err := h.service.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("videoId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, report)
}

// TogglePublish 切换发布状态
func (h *VideoHandler) TogglePublish(c *gin.Context) {
	video, err := h.service.TogglePublish(c.Request.Context(), middleware.CurrentUserID(c), c.Param("videoId"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"isPublished": video.IsPublished})
}
