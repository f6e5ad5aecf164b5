package service

import (
	"context"
	"errors"
	"fmt"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/repository"
	"vidtube/pkg/apperror"
)

// OwnershipGuard 归属与可见性判定，不访问存储
type OwnershipGuard struct{}

// CanMutate 只有归属者可以修改或删除
func (OwnershipGuard) CanMutate(actorID string, entity model.Ownable) bool {
	return actorID != "" && entity.Owner() == actorID
}

// CanViewVideo 已发布或本人可见
func (OwnershipGuard) CanViewVideo(actorID string, video *model.Video) bool {
	return video.IsPublished || (actorID != "" && video.OwnerID == actorID)
}

// CanInteract 点赞、评论只允许作用于已发布视频，对作者本人也一样
func (OwnershipGuard) CanInteract(video *model.Video) bool {
	return video.IsPublished
}

// RequireOwner 非归属者返回 Forbidden
func (g OwnershipGuard) RequireOwner(actorID string, entity model.Ownable, action string) error {
	if !g.CanMutate(actorID, entity) {
		return apperror.Forbidden(fmt.Sprintf("only the owner can %s", action))
	}
	return nil
}

// parentRule 父实体校验口径
type parentRule int

const (
	ruleView     parentRule = iota // 读取评论：视频需满足查看规则
	ruleInteract                   // 新增评论、点赞：视频需已发布
)

// parentResolver 按父实体的当前状态推导可见性，不做缓存
type parentResolver struct {
	store repository.EntityStore
	guard OwnershipGuard
}

// checkParent 父实体不存在或不可见时统一返回 NotFound
func (r parentResolver) checkParent(ctx context.Context, actorID string, parent model.Target, rule parentRule) error {
	switch parent.Kind {
	case model.KindVideo:
		video, err := r.store.GetVideo(ctx, parent.ID)
		if err != nil {
			return err
		}
		visible := r.guard.CanViewVideo(actorID, video)
		if rule == ruleInteract {
			visible = r.guard.CanInteract(video)
		}
		if !visible {
			return apperror.NotFound("video", parent.ID)
		}
		return nil
	case model.KindCommunityPost:
		ok, err := r.store.Exists(ctx, parent)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NotFound("community post", parent.ID)
		}
		return nil
	default:
		return apperror.InvalidArgument("parent", "comment parent must be a video or a community post")
	}
}

// checkTarget 点赞目标校验，评论的可见性取决于其父实体
func (r parentResolver) checkTarget(ctx context.Context, actorID string, target model.Target) error {
	if target.Kind != model.KindComment {
		return r.checkParent(ctx, actorID, target, ruleInteract)
	}
	comment, err := r.store.GetComment(ctx, target.ID)
	if err != nil {
		return err
	}
	if err := r.checkParent(ctx, actorID, comment.Parent(), ruleInteract); err != nil {
		// 父实体不可见时评论本身也视为不存在
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound("comment", target.ID)
		}
		return err
	}
	return nil
}
