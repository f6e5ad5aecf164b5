package service

import (
	"context"
	"strings"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/repository"
	"vidtube/pkg/apperror"
)

// InteractionService 点赞、订阅与频道主页
type InteractionService interface {
	ToggleLike(ctx context.Context, actorID string, target model.Target) (ToggleResult[model.Like], error)
	LikedVideos(ctx context.Context, actorID string) ([]model.VideoView, error)
	ToggleSubscription(ctx context.Context, actorID, channelID string) (ToggleResult[model.Subscription], error)
	Subscribers(ctx context.Context, actorID, channelID string) ([]model.ChannelSummary, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]model.ChannelSummary, error)
	ChannelProfile(ctx context.Context, viewerID, username string) (*model.ChannelProfile, error)
}

type interactionService struct {
	store     repository.EntityStore
	agg       repository.AggregateRepository
	toggles   *ToggleEngine
	filter    *VisibilityFilter
	validator IDValidator
}

// NewInteractionService 创建互动服务
func NewInteractionService(store repository.EntityStore, agg repository.AggregateRepository, toggles *ToggleEngine, filter *VisibilityFilter, validator IDValidator) InteractionService {
	return &interactionService{store: store, agg: agg, toggles: toggles, filter: filter, validator: validator}
}

func (s *interactionService) ToggleLike(ctx context.Context, actorID string, target model.Target) (ToggleResult[model.Like], error) {
	return s.toggles.ToggleLike(ctx, actorID, target)
}

func (s *interactionService) LikedVideos(ctx context.Context, actorID string) ([]model.VideoView, error) {
	videos, err := s.agg.ListLikedVideos(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.filter.ShapeVideoList(actorID, videos), nil
}

func (s *interactionService) ToggleSubscription(ctx context.Context, actorID, channelID string) (ToggleResult[model.Subscription], error) {
	return s.toggles.ToggleSubscription(ctx, actorID, channelID)
}

// Subscribers 只有频道本人可以查看订阅者列表
func (s *interactionService) Subscribers(ctx context.Context, actorID, channelID string) ([]model.ChannelSummary, error) {
	if err := requireID(s.validator, "channelId", channelID); err != nil {
		return nil, err
	}
	if actorID != channelID {
		return nil, apperror.Forbidden("only the channel owner can list subscribers")
	}
	return s.agg.ListSubscribers(ctx, channelID)
}

func (s *interactionService) SubscribedChannels(ctx context.Context, subscriberID string) ([]model.ChannelSummary, error) {
	if err := requireID(s.validator, "subscriberId", subscriberID); err != nil {
		return nil, err
	}
	ok, err := s.store.UserExists(ctx, subscriberID)
	if err != nil {
		return nil, apperror.Wrap("get user", err)
	}
	if !ok {
		return nil, apperror.NotFound("user", subscriberID)
	}
	return s.agg.ListSubscribedChannels(ctx, subscriberID)
}

func (s *interactionService) ChannelProfile(ctx context.Context, viewerID, username string) (*model.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperror.InvalidArgument("username", "username is required")
	}
	profile, err := s.agg.GetChannelProfile(ctx, username, viewerID)
	if err != nil {
		return nil, err
	}
	return s.filter.ShapeChannelProfile(viewerID, profile), nil
}
