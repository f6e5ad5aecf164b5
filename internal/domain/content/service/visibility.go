package service

import (
	"context"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/repository"
)

// VisibilityFilter 按查看者身份裁剪读模型
type VisibilityFilter struct {
	guard   OwnershipGuard
	parents parentResolver
}

// NewVisibilityFilter 创建可见性过滤器
func NewVisibilityFilter(store repository.EntityStore) *VisibilityFilter {
	return &VisibilityFilter{parents: parentResolver{store: store}}
}

// ShapeVideoList 非作者看不到未发布视频
func (f *VisibilityFilter) ShapeVideoList(viewerID string, videos []model.VideoView) []model.VideoView {
	out := make([]model.VideoView, 0, len(videos))
	for _, v := range videos {
		if v.IsPublished || v.Owner.ID == viewerID {
			out = append(out, v)
		}
	}
	return out
}

// ShapePlaylistVideos 播放列表归属者可见全部视频，其他人只见已发布视频；统计在过滤之后计算
func (f *VisibilityFilter) ShapePlaylistVideos(viewerID string, playlist *model.Playlist, rows []model.PlaylistVideoRow) model.PlaylistView {
	isOwner := f.guard.CanMutate(viewerID, playlist)

	view := model.PlaylistView{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Thumbnail:   playlist.Thumbnail,
		Owner:       playlist.OwnerID,
		CreatedAt:   playlist.CreatedAt,
		Videos:      make([]model.PlaylistVideoRow, 0, len(rows)),
	}
	for _, row := range rows {
		if !isOwner && !row.IsPublished {
			continue
		}
		view.Videos = append(view.Videos, row)
		view.TotalViews += row.Views
	}
	view.TotalVideos = len(view.Videos)
	return view
}

// ShapeChannelProfile 邮箱只对本人可见
func (f *VisibilityFilter) ShapeChannelProfile(viewerID string, profile *model.ChannelProfile) *model.ChannelProfile {
	shaped := *profile
	if viewerID == "" || viewerID != profile.ID {
		shaped.Email = ""
	}
	return &shaped
}

// RequireParentVisible 评论列表的可见性取决于父实体当前状态
func (f *VisibilityFilter) RequireParentVisible(ctx context.Context, viewerID string, parent model.Target) error {
	return f.parents.checkParent(ctx, viewerID, parent, ruleView)
}

// ShapeComments 父实体不可见时整体返回 NotFound，零结果返回空列表
func (f *VisibilityFilter) ShapeComments(ctx context.Context, viewerID string, parent model.Target, comments []model.CommentView) ([]model.CommentView, error) {
	if err := f.RequireParentVisible(ctx, viewerID, parent); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []model.CommentView{}
	}
	return comments, nil
}
