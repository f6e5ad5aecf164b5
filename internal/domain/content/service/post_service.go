package service

import (
	"context"
	"strings"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/repository"
	"vidtube/pkg/apperror"
	"vidtube/pkg/utils"
)

// CommunityPostService 社区动态服务接口
type CommunityPostService interface {
	Create(ctx context.Context, actorID, content string) (*model.CommunityPost, error)
	ListByUser(ctx context.Context, viewerID, userID string, page utils.Pagination) (utils.PageResult, error)
	Update(ctx context.Context, actorID, postID, content string) (*model.CommunityPost, error)
	Delete(ctx context.Context, actorID, postID string) (*CascadeReport, error)
}

type communityPostService struct {
	store     repository.EntityStore
	agg       repository.AggregateRepository
	cascade   *CascadeDeleter
	guard     OwnershipGuard
	validator IDValidator
}

// NewCommunityPostService 创建动态服务
func NewCommunityPostService(store repository.EntityStore, agg repository.AggregateRepository, cascade *CascadeDeleter, validator IDValidator) CommunityPostService {
	return &communityPostService{store: store, agg: agg, cascade: cascade, validator: validator}
}

func (s *communityPostService) Create(ctx context.Context, actorID, content string) (*model.CommunityPost, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.InvalidArgument("content", "content is required")
	}
	post := &model.CommunityPost{OwnerID: actorID, Content: content}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, apperror.Wrap("create community post", err)
	}
	return post, nil
}

// ListByUser 用户不存在时返回 NotFound，没有动态时返回空列表
func (s *communityPostService) ListByUser(ctx context.Context, viewerID, userID string, page utils.Pagination) (utils.PageResult, error) {
	if err := requireID(s.validator, "userId", userID); err != nil {
		return utils.PageResult{}, err
	}
	ok, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return utils.PageResult{}, apperror.Wrap("get user", err)
	}
	if !ok {
		return utils.PageResult{}, apperror.NotFound("user", userID)
	}

	offset, limit := page.GetPageOffset()
	posts, total, err := s.agg.ListPosts(ctx, userID, viewerID, offset, limit)
	if err != nil {
		return utils.PageResult{}, err
	}
	return utils.NewPageResult(posts, total, page), nil
}

func (s *communityPostService) Update(ctx context.Context, actorID, postID, content string) (*model.CommunityPost, error) {
	if err := requireID(s.validator, "communityPostId", postID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.InvalidArgument("content", "content is required")
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(actorID, post, "update this community post"); err != nil {
		return nil, err
	}
	if err := s.store.UpdatePostContent(ctx, postID, content); err != nil {
		return nil, apperror.Wrap("update community post", err)
	}
	post.Content = content
	return post, nil
}

func (s *communityPostService) Delete(ctx context.Context, actorID, postID string) (*CascadeReport, error) {
	return s.cascade.DeleteCommunityPost(ctx, actorID, postID)
}
