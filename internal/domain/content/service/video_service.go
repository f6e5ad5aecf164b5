package service

import (
	"context"
	"errors"
	"strings"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/repository"
	"vidtube/internal/pkg/uploader"
	"vidtube/pkg/apperror"
	"vidtube/pkg/utils"

	"go.uber.org/zap"
)

// PublishVideoInput 发布视频参数，文件已落地到本地临时目录
type PublishVideoInput struct {
	Title         string
	Description   string
	Duration      float64
	VideoPath     string
	ThumbnailPath string
}

// UpdateVideoInput 更新视频参数，ThumbnailPath 为空表示不替换封面
type UpdateVideoInput struct {
	Title         string
	Description   string
	ThumbnailPath string
}

// ListVideosInput 视频列表参数
type ListVideosInput struct {
	utils.Pagination
	UserID   string
	Query    string
	SortBy   string
	SortType string // asc 或 desc
}

// VideoService 视频服务接口
type VideoService interface {
	Publish(ctx context.Context, actorID string, input PublishVideoInput) (*model.Video, error)
	Get(ctx context.Context, viewerID, videoID string) (*model.VideoDetail, error)
	List(ctx context.Context, viewerID string, input ListVideosInput) (utils.PageResult, error)
	Update(ctx context.Context, actorID, videoID string, input UpdateVideoInput) (*model.Video, error)
	TogglePublish(ctx context.Context, actorID, videoID string) (*model.Video, error)
	Delete(ctx context.Context, actorID, videoID string) (*CascadeReport, error)
}

type videoService struct {
	store     repository.EntityStore
	agg       repository.AggregateRepository
	blob      uploader.BlobStore
	cascade   *CascadeDeleter
	filter    *VisibilityFilter
	guard     OwnershipGuard
	validator IDValidator
	log       *zap.Logger
}

// NewVideoService 创建视频服务
func NewVideoService(store repository.EntityStore, agg repository.AggregateRepository, blob uploader.BlobStore, cascade *CascadeDeleter, filter *VisibilityFilter, validator IDValidator, log *zap.Logger) VideoService {
	return &videoService{
		store:     store,
		agg:       agg,
		blob:      blob,
		cascade:   cascade,
		filter:    filter,
		validator: validator,
		log:       log,
	}
}

// Publish 上传视频与封面后落库，封面上传失败时回收已上传的视频文件；本地临时文件总是删除
func (s *videoService) Publish(ctx context.Context, actorID string, input PublishVideoInput) (*model.Video, error) {
	defer uploader.Discard(input.VideoPath, input.ThumbnailPath)

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperror.InvalidArgument("video", "title and description are required")
	}
	if input.VideoPath == "" || input.ThumbnailPath == "" {
		return nil, apperror.InvalidArgument("video", "video file and thumbnail are required")
	}

	// 1. 上传视频
	videoURL, err := s.blob.Upload(ctx, input.VideoPath, uploader.CategoryVideo)
	if err != nil {
		return nil, apperror.Internal("upload video file", err)
	}

	// 2. 上传封面
	thumbnailURL, err := s.blob.Upload(ctx, input.ThumbnailPath, uploader.CategoryImage)
	if err != nil {
		s.discard(ctx, uploader.CategoryVideo, videoURL)
		return nil, apperror.Internal("upload thumbnail", err)
	}

	// 3. 落库
	video := &model.Video{
		OwnerID:     actorID,
		Title:       title,
		Description: description,
		VideoFile:   videoURL,
		Thumbnail:   thumbnailURL,
		Duration:    input.Duration,
		IsPublished: true,
	}
	if err := s.store.CreateVideo(ctx, video); err != nil {
		s.discard(ctx, uploader.CategoryVideo, videoURL)
		s.discard(ctx, uploader.CategoryImage, thumbnailURL)
		return nil, apperror.Wrap("create video", err)
	}
	return video, nil
}

// Get 非作者查看时累加播放量
func (s *videoService) Get(ctx context.Context, viewerID, videoID string) (*model.VideoDetail, error) {
	if err := requireID(s.validator, "videoId", videoID); err != nil {
		return nil, err
	}

	detail, err := s.agg.GetVideoDetail(ctx, videoID, viewerID)
	if err != nil {
		return nil, err
	}
	if !detail.IsPublished && detail.Owner.ID != viewerID {
		return nil, apperror.NotFound("video", videoID)
	}

	if detail.Owner.ID != viewerID {
		if err := s.store.IncrementViews(ctx, videoID); err != nil {
			// 播放量不影响读取
			s.log.Warn("increment views failed", zap.String("video", videoID), zap.Error(err))
		} else {
			detail.Views++
		}
	}
	return detail, nil
}

func (s *videoService) List(ctx context.Context, viewerID string, input ListVideosInput) (utils.PageResult, error) {
	if input.UserID != "" {
		if err := requireID(s.validator, "userId", input.UserID); err != nil {
			return utils.PageResult{}, err
		}
	}
	offset, limit := input.GetPageOffset()

	videos, total, err := s.agg.ListVideos(ctx, repository.VideoListQuery{
		ViewerID: viewerID,
		OwnerID:  input.UserID,
		Search:   strings.TrimSpace(input.Query),
		SortBy:   input.SortBy,
		SortDesc: !strings.EqualFold(input.SortType, "asc"),
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return utils.PageResult{}, err
	}
	return utils.NewPageResult(s.filter.ShapeVideoList(viewerID, videos), total, input.Pagination), nil
}

// Update 更新标题、描述，可选替换封面，旧封面在新封面落库后删除
func (s *videoService) Update(ctx context.Context, actorID, videoID string, input UpdateVideoInput) (*model.Video, error) {
	defer uploader.Discard(input.ThumbnailPath)

	if err := requireID(s.validator, "videoId", videoID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" && description == "" && input.ThumbnailPath == "" {
		return nil, apperror.InvalidArgument("video", "nothing to update")
	}

	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(actorID, video, "update this video"); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if title != "" {
		fields["title"] = title
		video.Title = title
	}
	if description != "" {
		fields["description"] = description
		video.Description = description
	}

	oldThumbnail := video.Thumbnail
	if input.ThumbnailPath != "" {
		url, err := s.blob.Upload(ctx, input.ThumbnailPath, uploader.CategoryImage)
		if err != nil {
			return nil, apperror.Internal("upload thumbnail", err)
		}
		fields["thumbnail"] = url
		video.Thumbnail = url
	}

	if err := s.store.UpdateVideo(ctx, videoID, fields); err != nil {
		if input.ThumbnailPath != "" {
			s.discard(ctx, uploader.CategoryImage, video.Thumbnail)
		}
		return nil, apperror.Wrap("update video", err)
	}
	if input.ThumbnailPath != "" {
		s.discard(ctx, uploader.CategoryImage, oldThumbnail)
	}
	return video, nil
}

func (s *videoService) TogglePublish(ctx context.Context, actorID, videoID string) (*model.Video, error) {
	if err := requireID(s.validator, "videoId", videoID); err != nil {
		return nil, err
	}
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(actorID, video, "change the publish status"); err != nil {
		return nil, err
	}

	video.IsPublished = !video.IsPublished
	if err := s.store.UpdateVideo(ctx, videoID, map[string]interface{}{"is_published": video.IsPublished}); err != nil {
		return nil, apperror.Wrap("toggle publish", err)
	}
	return video, nil
}

func (s *videoService) Delete(ctx context.Context, actorID, videoID string) (*CascadeReport, error) {
	return s.cascade.DeleteVideo(ctx, actorID, videoID)
}

// discard 回收不再引用的对象，失败只记录日志
func (s *videoService) discard(ctx context.Context, category uploader.Category, url string) {
	if url == "" {
		return
	}
	if err := s.blob.Destroy(ctx, category, url); err != nil && !errors.Is(err, uploader.ErrForeignURL) {
		s.log.Warn("destroy blob failed", zap.String("url", url), zap.Error(err))
	}
}
