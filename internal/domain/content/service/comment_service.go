package service

import (
	"context"
	"errors"
	"strings"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/repository"
	"vidtube/pkg/apperror"
	"vidtube/pkg/utils"
)

// CommentService 评论服务接口，视频与动态共用
type CommentService interface {
	Add(ctx context.Context, actorID string, parent model.Target, content string) (*model.Comment, error)
	List(ctx context.Context, viewerID string, parent model.Target, page utils.Pagination) (utils.PageResult, error)
	Update(ctx context.Context, actorID, commentID, content string) (*model.Comment, error)
	Delete(ctx context.Context, actorID, commentID string) (*CascadeReport, error)
}

type commentService struct {
	store     repository.EntityStore
	agg       repository.AggregateRepository
	cascade   *CascadeDeleter
	filter    *VisibilityFilter
	parents   parentResolver
	guard     OwnershipGuard
	validator IDValidator
}

// NewCommentService 创建评论服务
func NewCommentService(store repository.EntityStore, agg repository.AggregateRepository, cascade *CascadeDeleter, filter *VisibilityFilter, validator IDValidator) CommentService {
	return &commentService{
		store:     store,
		agg:       agg,
		cascade:   cascade,
		filter:    filter,
		parents:   parentResolver{store: store},
		validator: validator,
	}
}

// Add 视频需已发布，动态需存在
func (s *commentService) Add(ctx context.Context, actorID string, parent model.Target, content string) (*model.Comment, error) {
	// 1. 校验父实体 ID
	if err := requireTarget(s.validator, parent); err != nil {
		return nil, err
	}

	// 2. 构造评论，父实体只能有一个
	comment, err := model.NewComment(actorID, parent, content)
	if err != nil {
		if errors.Is(err, model.ErrEmptyContent) {
			return nil, apperror.InvalidArgument("content", err.Error())
		}
		return nil, apperror.InvalidArgument("parent", err.Error())
	}

	// 3. 父实体存在且可评论
	if err := s.parents.checkParent(ctx, actorID, parent, ruleInteract); err != nil {
		return nil, err
	}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, apperror.Wrap("create comment", err)
	}
	return comment, nil
}

func (s *commentService) List(ctx context.Context, viewerID string, parent model.Target, page utils.Pagination) (utils.PageResult, error) {
	if err := requireTarget(s.validator, parent); err != nil {
		return utils.PageResult{}, err
	}
	if !parent.CanParentComment() {
		return utils.PageResult{}, apperror.InvalidArgument("parent", model.ErrInvalidParent.Error())
	}

	offset, limit := page.GetPageOffset()
	comments, total, err := s.agg.ListComments(ctx, parent, viewerID, offset, limit)
	if err != nil {
		return utils.PageResult{}, err
	}

	// 以父实体的当前状态为准
	comments, err = s.filter.ShapeComments(ctx, viewerID, parent, comments)
	if err != nil {
		return utils.PageResult{}, err
	}
	return utils.NewPageResult(comments, total, page), nil
}

// Update 父实体已不可见时同样返回 NotFound
func (s *commentService) Update(ctx context.Context, actorID, commentID, content string) (*model.Comment, error) {
	if err := requireID(s.validator, "commentId", commentID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.InvalidArgument("content", "content is required")
	}

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(actorID, comment, "update this comment"); err != nil {
		return nil, err
	}
	if err := s.filter.RequireParentVisible(ctx, actorID, comment.Parent()); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("comment", commentID)
		}
		return nil, err
	}

	if err := s.store.UpdateCommentContent(ctx, commentID, content); err != nil {
		return nil, apperror.Wrap("update comment", err)
	}
	comment.Content = content
	return comment, nil
}

func (s *commentService) Delete(ctx context.Context, actorID, commentID string) (*CascadeReport, error) {
	return s.cascade.DeleteComment(ctx, actorID, commentID)
}
