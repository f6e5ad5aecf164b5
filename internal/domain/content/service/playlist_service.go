package service

import (
	"context"
	"strings"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/repository"
	"vidtube/pkg/apperror"
)

// PlaylistService 播放列表服务接口
type PlaylistService interface {
	Create(ctx context.Context, actorID, name, description string) (*model.Playlist, error)
	Get(ctx context.Context, viewerID, playlistID string) (*model.PlaylistView, error)
	ListByUser(ctx context.Context, viewerID, userID string) ([]model.PlaylistSummary, error)
	Update(ctx context.Context, actorID, playlistID, name, description string) (*model.Playlist, error)
	Delete(ctx context.Context, actorID, playlistID string) error
	AddVideo(ctx context.Context, actorID, playlistID, videoID string) (*model.PlaylistView, error)
	RemoveVideo(ctx context.Context, actorID, playlistID, videoID string) (*model.PlaylistView, error)
}

type playlistService struct {
	store     repository.EntityStore
	agg       repository.AggregateRepository
	filter    *VisibilityFilter
	guard     OwnershipGuard
	validator IDValidator
}

// NewPlaylistService 创建播放列表服务
func NewPlaylistService(store repository.EntityStore, agg repository.AggregateRepository, filter *VisibilityFilter, validator IDValidator) PlaylistService {
	return &playlistService{store: store, agg: agg, filter: filter, validator: validator}
}

func (s *playlistService) Create(ctx context.Context, actorID, name, description string) (*model.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.InvalidArgument("name", "name is required")
	}
	playlist := &model.Playlist{OwnerID: actorID, Name: name, Description: strings.TrimSpace(description)}
	if err := s.store.CreatePlaylist(ctx, playlist); err != nil {
		return nil, apperror.Wrap("create playlist", err)
	}
	return playlist, nil
}

// Get 播放列表本身公开，其中的视频按查看者过滤
func (s *playlistService) Get(ctx context.Context, viewerID, playlistID string) (*model.PlaylistView, error) {
	if err := requireID(s.validator, "playlistId", playlistID); err != nil {
		return nil, err
	}
	playlist, err := s.store.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewerID, playlist)
}

func (s *playlistService) ListByUser(ctx context.Context, viewerID, userID string) ([]model.PlaylistSummary, error) {
	if err := requireID(s.validator, "userId", userID); err != nil {
		return nil, err
	}
	ok, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap("get user", err)
	}
	if !ok {
		return nil, apperror.NotFound("user", userID)
	}
	return s.agg.ListUserPlaylists(ctx, userID, viewerID)
}

func (s *playlistService) Update(ctx context.Context, actorID, playlistID, name, description string) (*model.Playlist, error) {
	playlist, err := s.owned(ctx, actorID, playlistID, "update this playlist")
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if name = strings.TrimSpace(name); name != "" {
		fields["name"] = name
		playlist.Name = name
	}
	if description = strings.TrimSpace(description); description != "" {
		fields["description"] = description
		playlist.Description = description
	}
	if len(fields) == 0 {
		return nil, apperror.InvalidArgument("playlist", "name or description is required")
	}

	if err := s.store.UpdatePlaylist(ctx, playlistID, fields); err != nil {
		return nil, apperror.Wrap("update playlist", err)
	}
	return playlist, nil
}

func (s *playlistService) Delete(ctx context.Context, actorID, playlistID string) error {
	if _, err := s.owned(ctx, actorID, playlistID, "delete this playlist"); err != nil {
		return err
	}
	return apperror.Wrap("delete playlist", s.store.DeletePlaylist(ctx, playlistID))
}

// AddVideo 视频需对播放列表归属者可见，重复添加返回 Conflict
func (s *playlistService) AddVideo(ctx context.Context, actorID, playlistID, videoID string) (*model.PlaylistView, error) {
	if err := requireID(s.validator, "videoId", videoID); err != nil {
		return nil, err
	}
	playlist, err := s.owned(ctx, actorID, playlistID, "add videos to this playlist")
	if err != nil {
		return nil, err
	}

	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !s.guard.CanViewVideo(actorID, video) {
		return nil, apperror.NotFound("video", videoID)
	}

	added, err := s.store.AddPlaylistVideo(ctx, playlistID, videoID)
	if err != nil {
		return nil, apperror.Wrap("add playlist video", err)
	}
	if !added {
		return nil, apperror.Conflict("playlist", "video already in playlist")
	}
	return s.view(ctx, actorID, playlist)
}

func (s *playlistService) RemoveVideo(ctx context.Context, actorID, playlistID, videoID string) (*model.PlaylistView, error) {
	if err := requireID(s.validator, "videoId", videoID); err != nil {
		return nil, err
	}
	playlist, err := s.owned(ctx, actorID, playlistID, "remove videos from this playlist")
	if err != nil {
		return nil, err
	}

	removed, err := s.store.RemovePlaylistVideo(ctx, playlistID, videoID)
	if err != nil {
		return nil, apperror.Wrap("remove playlist video", err)
	}
	if !removed {
		return nil, apperror.NotFound("playlist video", videoID)
	}
	return s.view(ctx, actorID, playlist)
}

func (s *playlistService) owned(ctx context.Context, actorID, playlistID, action string) (*model.Playlist, error) {
	if err := requireID(s.validator, "playlistId", playlistID); err != nil {
		return nil, err
	}
	playlist, err := s.store.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireOwner(actorID, playlist, action); err != nil {
		return nil, err
	}
	return playlist, nil
}

func (s *playlistService) view(ctx context.Context, viewerID string, playlist *model.Playlist) (*model.PlaylistView, error) {
	rows, err := s.agg.ListPlaylistVideos(ctx, playlist.ID, viewerID)
	if err != nil {
		return nil, err
	}
	view := s.filter.ShapePlaylistVideos(viewerID, playlist, rows)
	return &view, nil
}
