package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vidtube/internal/domain/content/model"
	"vidtube/pkg/apperror"

	"github.com/jmoiron/sqlx"
)

// VideoListQuery 视频列表查询条件
type VideoListQuery struct {
	ViewerID string
	OwnerID  string // 为空表示全部作者
	Search   string // 标题模糊匹配
	SortBy   string // created_at, views, duration, title
	SortDesc bool
	Offset   int
	Limit    int
}

// AggregateRepository 读模型聚合查询，计数均在读取时计算
type AggregateRepository interface {
	ListVideos(ctx context.Context, q VideoListQuery) ([]model.VideoView, int64, error)
	GetVideoDetail(ctx context.Context, videoID, viewerID string) (*model.VideoDetail, error)
	ListPlaylistVideos(ctx context.Context, playlistID, viewerID string) ([]model.PlaylistVideoRow, error)
	ListUserPlaylists(ctx context.Context, ownerID, viewerID string) ([]model.PlaylistSummary, error)
	ListComments(ctx context.Context, parent model.Target, viewerID string, offset, limit int) ([]model.CommentView, int64, error)
	ListPosts(ctx context.Context, ownerID, viewerID string, offset, limit int) ([]model.CommunityPostView, int64, error)
	ListLikedVideos(ctx context.Context, likerID string) ([]model.VideoView, error)
	GetChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error)
	ListSubscribers(ctx context.Context, channelID string) ([]model.ChannelSummary, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]model.ChannelSummary, error)
}

type aggregateRepository struct {
	db *sqlx.DB
}

// NewAggregateRepository 创建 sqlx 实现
func NewAggregateRepository(db *sqlx.DB) AggregateRepository {
	return &aggregateRepository{db: db}
}

// 视频列表公共列，需绑定一个 viewerID 参数
const videoColumns = `
	v.id, v.title, v.description, v.video_file, v.thumbnail, v.duration, v.views, v.is_published, v.created_at,
	u.id AS "owner.id", u.username AS "owner.username", u.full_name AS "owner.full_name", u.avatar AS "owner.avatar",
	(SELECT COUNT(*) FROM likes l WHERE l.target_kind = 'video' AND l.target_id = v.id) AS likes_count,
	(SELECT COUNT(*) FROM comments c WHERE c.parent_kind = 'video' AND c.parent_id = v.id) AS comments_count,
	EXISTS (SELECT 1 FROM likes l WHERE l.target_kind = 'video' AND l.target_id = v.id AND l.liker_id = ?) AS is_liked`

// 视频可见性：已发布或本人
const videoVisible = `(v.is_published OR v.owner_id = ?)`

var videoSortColumns = map[string]string{
	"created_at": "v.created_at",
	"createdAt":  "v.created_at",
	"views":      "v.views",
	"duration":   "v.duration",
	"title":      "v.title",
}

func (r *aggregateRepository) ListVideos(ctx context.Context, q VideoListQuery) ([]model.VideoView, int64, error) {
	where := []string{videoVisible}
	args := []interface{}{q.ViewerID}
	if q.OwnerID != "" {
		where = append(where, "v.owner_id = ?")
		args = append(args, q.OwnerID)
	}
	if q.Search != "" {
		where = append(where, "v.title ILIKE ?")
		args = append(args, "%"+q.Search+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := r.db.Rebind(`SELECT COUNT(*) FROM videos v WHERE ` + cond)
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, apperror.Internal("count videos", err)
	}

	sortCol, ok := videoSortColumns[q.SortBy]
	if !ok {
		sortCol = "v.created_at"
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}

	listSQL := r.db.Rebind(fmt.Sprintf(`SELECT %s
		FROM videos v JOIN users u ON u.id = v.owner_id
		WHERE %s
		ORDER BY %s %s, v.id
		LIMIT ? OFFSET ?`, videoColumns, cond, sortCol, dir))

	listArgs := append([]interface{}{q.ViewerID}, args...)
	listArgs = append(listArgs, q.Limit, q.Offset)

	videos := []model.VideoView{}
	if err := r.db.SelectContext(ctx, &videos, listSQL, listArgs...); err != nil {
		return nil, 0, apperror.Internal("list videos", err)
	}
	return videos, total, nil
}

func (r *aggregateRepository) GetVideoDetail(ctx context.Context, videoID, viewerID string) (*model.VideoDetail, error) {
	query := r.db.Rebind(`SELECT ` + videoColumns + `,
		(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = v.owner_id) AS owner_subscribers,
		EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = v.owner_id AND s.subscriber_id = ?) AS is_subscribed
		FROM videos v JOIN users u ON u.id = v.owner_id
		WHERE v.id = ?`)

	var detail model.VideoDetail
	if err := r.db.GetContext(ctx, &detail, query, viewerID, viewerID, videoID); err != nil {
		return nil, notFoundOr(err, "video", videoID)
	}
	return &detail, nil
}

// ListPlaylistVideos 返回全部视频，可见性由调用方按播放列表归属过滤
func (r *aggregateRepository) ListPlaylistVideos(ctx context.Context, playlistID, viewerID string) ([]model.PlaylistVideoRow, error) {
	query := r.db.Rebind(`SELECT ` + videoColumns + `, pv.position
		FROM playlist_videos pv
		JOIN videos v ON v.id = pv.video_id
		JOIN users u ON u.id = v.owner_id
		WHERE pv.playlist_id = ?
		ORDER BY pv.position`)

	rows := []model.PlaylistVideoRow{}
	if err := r.db.SelectContext(ctx, &rows, query, viewerID, playlistID); err != nil {
		return nil, apperror.Internal("list playlist videos", err)
	}
	return rows, nil
}

// ListUserPlaylists 播放列表归属者可计入未发布视频
func (r *aggregateRepository) ListUserPlaylists(ctx context.Context, ownerID, viewerID string) ([]model.PlaylistSummary, error) {
	query := r.db.Rebind(`SELECT p.id, p.name, p.description, p.thumbnail, p.created_at,
		(SELECT COUNT(*) FROM playlist_videos pv JOIN videos v ON v.id = pv.video_id
			WHERE pv.playlist_id = p.id AND (v.is_published OR p.owner_id = ?)) AS total_videos
		FROM playlists p
		WHERE p.owner_id = ?
		ORDER BY p.created_at DESC`)

	playlists := []model.PlaylistSummary{}
	if err := r.db.SelectContext(ctx, &playlists, query, viewerID, ownerID); err != nil {
		return nil, apperror.Internal("list playlists", err)
	}
	return playlists, nil
}

func (r *aggregateRepository) ListComments(ctx context.Context, parent model.Target, viewerID string, offset, limit int) ([]model.CommentView, int64, error) {
	var total int64
	countSQL := r.db.Rebind(`SELECT COUNT(*) FROM comments c WHERE c.parent_kind = ? AND c.parent_id = ?`)
	if err := r.db.GetContext(ctx, &total, countSQL, parent.Kind, parent.ID); err != nil {
		return nil, 0, apperror.Internal("count comments", err)
	}

	query := r.db.Rebind(`SELECT c.id, c.content, c.created_at, c.updated_at,
		u.id AS "owner.id", u.username AS "owner.username", u.full_name AS "owner.full_name", u.avatar AS "owner.avatar",
		(SELECT COUNT(*) FROM likes l WHERE l.target_kind = 'comment' AND l.target_id = c.id) AS likes_count,
		EXISTS (SELECT 1 FROM likes l WHERE l.target_kind = 'comment' AND l.target_id = c.id AND l.liker_id = ?) AS is_liked
		FROM comments c JOIN users u ON u.id = c.owner_id
		WHERE c.parent_kind = ? AND c.parent_id = ?
		ORDER BY c.created_at DESC, c.id
		LIMIT ? OFFSET ?`)

	comments := []model.CommentView{}
	if err := r.db.SelectContext(ctx, &comments, query, viewerID, parent.Kind, parent.ID, limit, offset); err != nil {
		return nil, 0, apperror.Internal("list comments", err)
	}
	return comments, total, nil
}

func (r *aggregateRepository) ListPosts(ctx context.Context, ownerID, viewerID string, offset, limit int) ([]model.CommunityPostView, int64, error) {
	var total int64
	countSQL := r.db.Rebind(`SELECT COUNT(*) FROM community_posts p WHERE p.owner_id = ?`)
	if err := r.db.GetContext(ctx, &total, countSQL, ownerID); err != nil {
		return nil, 0, apperror.Internal("count community posts", err)
	}

	query := r.db.Rebind(`SELECT p.id, p.content, p.created_at, p.updated_at,
		u.id AS "owner.id", u.username AS "owner.username", u.full_name AS "owner.full_name", u.avatar AS "owner.avatar",
		(SELECT COUNT(*) FROM likes l WHERE l.target_kind = 'community_post' AND l.target_id = p.id) AS likes_count,
		(SELECT COUNT(*) FROM comments c WHERE c.parent_kind = 'community_post' AND c.parent_id = p.id) AS comments_count,
		EXISTS (SELECT 1 FROM likes l WHERE l.target_kind = 'community_post' AND l.target_id = p.id AND l.liker_id = ?) AS is_liked
		FROM community_posts p JOIN users u ON u.id = p.owner_id
		WHERE p.owner_id = ?
		ORDER BY p.created_at DESC, p.id
		LIMIT ? OFFSET ?`)

	posts := []model.CommunityPostView{}
	if err := r.db.SelectContext(ctx, &posts, query, viewerID, ownerID, limit, offset); err != nil {
		return nil, 0, apperror.Internal("list community posts", err)
	}
	return posts, total, nil
}

// ListLikedVideos 点赞过且当前可见的视频，按点赞时间倒序
func (r *aggregateRepository) ListLikedVideos(ctx context.Context, likerID string) ([]model.VideoView, error) {
	query := r.db.Rebind(`SELECT ` + videoColumns + `
		FROM likes lk
		JOIN videos v ON v.id = lk.target_id
		JOIN users u ON u.id = v.owner_id
		WHERE lk.target_kind = 'video' AND lk.liker_id = ? AND ` + videoVisible + `
		ORDER BY lk.created_at DESC`)

	videos := []model.VideoView{}
	if err := r.db.SelectContext(ctx, &videos, query, likerID, likerID, likerID); err != nil {
		return nil, apperror.Internal("list liked videos", err)
	}
	return videos, nil
}

func (r *aggregateRepository) GetChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error) {
	query := r.db.Rebind(`SELECT u.id, u.username, u.full_name, u.email, u.avatar, u.cover_image, u.created_at,
		(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers_count,
		(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
		(SELECT COUNT(*) FROM videos v WHERE v.owner_id = u.id AND ` + videoVisible + `) AS videos_count,
		EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?) AS is_subscribed
		FROM users u
		WHERE u.username = ?`)

	var profile model.ChannelProfile
	if err := r.db.GetContext(ctx, &profile, query, viewerID, viewerID, username); err != nil {
		return nil, notFoundOr(err, "channel", username)
	}
	return &profile, nil
}

func (r *aggregateRepository) ListSubscribers(ctx context.Context, channelID string) ([]model.ChannelSummary, error) {
	query := r.db.Rebind(`SELECT u.id, u.username, u.full_name, u.avatar,
		(SELECT COUNT(*) FROM subscriptions x WHERE x.channel_id = u.id) AS subscribers_count,
		EXISTS (SELECT 1 FROM subscriptions x WHERE x.channel_id = u.id AND x.subscriber_id = ?) AS subscribed_back
		FROM subscriptions s JOIN users u ON u.id = s.subscriber_id
		WHERE s.channel_id = ?
		ORDER BY s.created_at DESC`)

	subscribers := []model.ChannelSummary{}
	if err := r.db.SelectContext(ctx, &subscribers, query, channelID, channelID); err != nil {
		return nil, apperror.Internal("list subscribers", err)
	}
	return subscribers, nil
}

func (r *aggregateRepository) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]model.ChannelSummary, error) {
	query := r.db.Rebind(`SELECT u.id, u.username, u.full_name, u.avatar,
		(SELECT COUNT(*) FROM subscriptions x WHERE x.channel_id = u.id) AS subscribers_count,
		EXISTS (SELECT 1 FROM subscriptions x WHERE x.channel_id = ? AND x.subscriber_id = u.id) AS subscribed_back
		FROM subscriptions s JOIN users u ON u.id = s.channel_id
		WHERE s.subscriber_id = ?
		ORDER BY s.created_at DESC`)

	channels := []model.ChannelSummary{}
	if err := r.db.SelectContext(ctx, &channels, query, subscriberID, subscriberID); err != nil {
		return nil, apperror.Internal("list subscribed channels", err)
	}
	return channels, nil
}

func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, id)
	}
	return apperror.Internal("get "+resource, err)
}
