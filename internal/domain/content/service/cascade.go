package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/repository"
	"vidtube/internal/pkg/uploader"
	"vidtube/internal/pkg/worker"
	"vidtube/pkg/apperror"
	"vidtube/pkg/metrics"

	"go.uber.org/zap"
)

// CleanupQueue 级联失败补偿队列
type CleanupQueue interface {
	AddTask(ctx context.Context, task worker.CleanupTask)
}

// 级联子步骤名称，用于日志、指标与补偿任务
const (
	stepLikes        = "likes"
	stepListComments = "list_comments"
	stepCommentLikes = "comment_likes"
	stepComments     = "comments"
	stepMedia        = "media"
)

// CascadeReport 一次删除的级联结果
type CascadeReport struct {
	Target              model.Target `json:"target"`
	LikesDeleted        int64        `json:"likesDeleted"`
	CommentsDeleted     int64        `json:"commentsDeleted"`
	CommentLikesDeleted int64        `json:"commentLikesDeleted"`
	CommentsSkipped     int          `json:"commentsSkipped"`
	MediaReleased       int          `json:"mediaReleased"`
	FailedSteps         []string     `json:"failedSteps,omitempty"`
}

// Clean 所有子步骤是否都成功
func (r *CascadeReport) Clean() bool {
	return len(r.FailedSteps) == 0
}

func (r *CascadeReport) fail(step string) {
	for _, s := range r.FailedSteps {
		if s == step {
			return
		}
	}
	r.FailedSteps = append(r.FailedSteps, step)
}

// CascadeDeleter 删除主实体并级联清理依赖数据
type CascadeDeleter struct {
	store     repository.EntityStore
	blob      uploader.BlobStore
	queue     CleanupQueue
	guard     OwnershipGuard
	validator IDValidator
	log       *zap.Logger
	metrics   *metrics.Collector
}

// NewCascadeDeleter 创建级联删除器，queue 与 blob 可为 nil
func NewCascadeDeleter(store repository.EntityStore, blob uploader.BlobStore, queue CleanupQueue, validator IDValidator, log *zap.Logger, m *metrics.Collector) *CascadeDeleter {
	return &CascadeDeleter{
		store:     store,
		blob:      blob,
		queue:     queue,
		validator: validator,
		log:       log,
		metrics:   m,
	}
}

// DeleteVideo 删除视频及其点赞、评论、评论的点赞，并释放媒体文件
func (d *CascadeDeleter) DeleteVideo(ctx context.Context, actorID, videoID string) (*CascadeReport, error) {
	// 1. 定位
	if err := requireID(d.validator, "videoId", videoID); err != nil {
		return nil, err
	}
	video, err := d.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, apperror.Wrap("get video", err)
	}

	// 2. 鉴权
	if err := d.guard.RequireOwner(actorID, video, "delete this video"); err != nil {
		return nil, err
	}

	// 3. 记录媒体引用，主删除后仍需释放
	media := []worker.MediaRef{
		{Category: string(uploader.CategoryVideo), URL: video.VideoFile},
		{Category: string(uploader.CategoryImage), URL: video.Thumbnail},
	}

	// 4. 删除主实体
	target := model.VideoTarget(videoID)
	if err := d.deletePrimary(ctx, target, d.store.DeleteVideo); err != nil {
		return nil, err
	}

	// 5. 级联
	report, _ := d.PurgeDependents(ctx, target)
	failedMedia := d.releaseMedia(ctx, target, media, report)
	d.enqueue(ctx, target, report, failedMedia)

	// 6. 主删除成功即视为成功
	return report, nil
}

// DeleteCommunityPost 删除动态及其点赞、评论、评论的点赞
func (d *CascadeDeleter) DeleteCommunityPost(ctx context.Context, actorID, postID string) (*CascadeReport, error) {
	if err := requireID(d.validator, "communityPostId", postID); err != nil {
		return nil, err
	}
	post, err := d.store.GetPost(ctx, postID)
	if err != nil {
		return nil, apperror.Wrap("get community post", err)
	}
	if err := d.guard.RequireOwner(actorID, post, "delete this community post"); err != nil {
		return nil, err
	}

	target := model.CommunityPostTarget(postID)
	if err := d.deletePrimary(ctx, target, d.store.DeletePost); err != nil {
		return nil, err
	}

	report, _ := d.PurgeDependents(ctx, target)
	d.enqueue(ctx, target, report, nil)
	return report, nil
}

// DeleteComment 删除评论及其点赞
func (d *CascadeDeleter) DeleteComment(ctx context.Context, actorID, commentID string) (*CascadeReport, error) {
	if err := requireID(d.validator, "commentId", commentID); err != nil {
		return nil, err
	}
	comment, err := d.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, apperror.Wrap("get comment", err)
	}
	if err := d.guard.RequireOwner(actorID, comment, "delete this comment"); err != nil {
		return nil, err
	}

	target := model.CommentTarget(commentID)
	if err := d.deletePrimary(ctx, target, d.store.DeleteComment); err != nil {
		return nil, err
	}

	report, _ := d.PurgeDependents(ctx, target)
	d.enqueue(ctx, target, report, nil)
	return report, nil
}

// deletePrimary 主删除失败直接返回，此时依赖数据未被触碰
func (d *CascadeDeleter) deletePrimary(ctx context.Context, target model.Target, del func(context.Context, string) error) error {
	if err := del(ctx, target.ID); err != nil {
		// 并发删除时已不存在
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return apperror.Internal(fmt.Sprintf("delete %s", target.Kind), err)
	}
	if d.metrics != nil {
		d.metrics.RecordCascade(string(target.Kind))
	}
	return nil
}

// PurgeDependents 删除父实体的点赞与评论；评论的点赞删除失败时保留该评论，
// 保证任何时刻都不会出现评论已删而其点赞仍在的情况
func (d *CascadeDeleter) PurgeDependents(ctx context.Context, parent model.Target) (*CascadeReport, error) {
	report := &CascadeReport{Target: parent}
	var errs []error

	// 1. 父实体的点赞
	n, err := d.store.DeleteLikesByTarget(ctx, parent)
	if err != nil {
		errs = append(errs, d.stepFailed(report, parent, stepLikes, err))
	} else {
		report.LikesDeleted = n
		d.recordRows("like", n)
	}

	if !parent.CanParentComment() {
		return report, errors.Join(errs...)
	}

	// 2. 枚举评论
	commentIDs, err := d.store.ListCommentIDs(ctx, parent)
	if err != nil {
		errs = append(errs, d.stepFailed(report, parent, stepListComments, err))
		return report, errors.Join(errs...)
	}

	// 3. 逐条删除：先点赞后评论
	for _, id := range commentIDs {
		commentTarget := model.CommentTarget(id)
		n, err := d.store.DeleteLikesByTarget(ctx, commentTarget)
		if err != nil {
			errs = append(errs, d.stepFailed(report, commentTarget, stepCommentLikes, err))
			report.CommentsSkipped++
			continue
		}
		report.CommentLikesDeleted += n
		d.recordRows("comment_like", n)

		if err := d.store.DeleteComment(ctx, id); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			errs = append(errs, d.stepFailed(report, commentTarget, stepComments, err))
			report.CommentsSkipped++
			continue
		}
		report.CommentsDeleted++
		d.recordRows("comment", 1)
	}

	return report, errors.Join(errs...)
}

// releaseMedia 释放对象存储文件，返回释放失败的引用
func (d *CascadeDeleter) releaseMedia(ctx context.Context, target model.Target, media []worker.MediaRef, report *CascadeReport) []worker.MediaRef {
	failed, released := destroyMedia(ctx, d.blob, media, func(ref worker.MediaRef, err error) {
		d.stepFailed(report, target, stepMedia, err)
	})
	report.MediaReleased = released
	return failed
}

func (d *CascadeDeleter) stepFailed(report *CascadeReport, target model.Target, step string, err error) error {
	report.fail(step)
	d.log.Error("cascade step failed",
		zap.Stringer("target", target),
		zap.Stringer("parent", report.Target),
		zap.String("step", step),
		zap.Error(err),
	)
	if d.metrics != nil {
		d.metrics.RecordCascadeFailure(string(report.Target.Kind), step)
	}
	return fmt.Errorf("%s %s: %w", step, target, err)
}

func (d *CascadeDeleter) recordRows(entity string, n int64) {
	if d.metrics != nil {
		d.metrics.RecordCascadeRows(entity, n)
	}
}

// enqueue 有失败步骤时提交补偿任务
func (d *CascadeDeleter) enqueue(ctx context.Context, target model.Target, report *CascadeReport, media []worker.MediaRef) {
	if report.Clean() || d.queue == nil {
		return
	}
	d.queue.AddTask(ctx, worker.CleanupTask{
		Kind:   string(target.Kind),
		ID:     target.ID,
		Step:   strings.Join(report.FailedSteps, ","),
		Reason: "cascade incomplete",
		Media:  media,
	})
}

// destroyMedia 逐个删除对象，空 URL 跳过
func destroyMedia(ctx context.Context, blob uploader.BlobStore, media []worker.MediaRef, onErr func(worker.MediaRef, error)) ([]worker.MediaRef, int) {
	if blob == nil {
		return nil, 0
	}
	var failed []worker.MediaRef
	released := 0
	for _, ref := range media {
		if ref.URL == "" {
			continue
		}
		err := blob.Destroy(ctx, uploader.Category(ref.Category), ref.URL)
		switch {
		case err == nil:
			released++
		case errors.Is(err, uploader.ErrForeignURL):
			// 不属于当前存储桶的地址无需也无法删除
		default:
			failed = append(failed, ref)
			onErr(ref, err)
		}
	}
	return failed, released
}
