package repository

import (
	"context"

	"vidtube/internal/domain/content/model"
	userModel "vidtube/internal/domain/user/model"
	"vidtube/pkg/database"

	"gorm.io/gorm"
)

// VideoStore 视频存取
type VideoStore interface {
	CreateVideo(ctx context.Context, video *model.Video) error
	GetVideo(ctx context.Context, id string) (*model.Video, error)
	UpdateVideo(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteVideo(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

// CommunityPostStore 动态存取
type CommunityPostStore interface {
	CreatePost(ctx context.Context, post *model.CommunityPost) error
	GetPost(ctx context.Context, id string) (*model.CommunityPost, error)
	UpdatePostContent(ctx context.Context, id, content string) error
	DeletePost(ctx context.Context, id string) error
}

// CommentStore 评论存取
type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	UpdateCommentContent(ctx context.Context, id, content string) error
	DeleteComment(ctx context.Context, id string) error
	ListCommentIDs(ctx context.Context, parent model.Target) ([]string, error)
}

// LikeStore 点赞存取，只提供原子操作
type LikeStore interface {
	// FindAndDeleteLike 单条语句删除并返回已存在的点赞，不存在时返回 nil, nil
	FindAndDeleteLike(ctx context.Context, likerID string, target model.Target) (*model.Like, error)
	// CreateLike 插入点赞；并发插入落败时用已存在的行填充 like 并返回 created=false，
	// 已存在的行随后被删除时保留 like 原值
	CreateLike(ctx context.Context, like *model.Like) (bool, error)
	DeleteLikesByTarget(ctx context.Context, target model.Target) (int64, error)
}

// SubscriptionStore 订阅存取
type SubscriptionStore interface {
	FindAndDeleteSubscription(ctx context.Context, subscriberID, channelID string) (*model.Subscription, error)
	CreateSubscription(ctx context.Context, sub *model.Subscription) (bool, error)
}

// PlaylistStore 播放列表存取
type PlaylistStore interface {
	CreatePlaylist(ctx context.Context, playlist *model.Playlist) error
	GetPlaylist(ctx context.Context, id string) (*model.Playlist, error)
	UpdatePlaylist(ctx context.Context, id string, fields map[string]interface{}) error
	DeletePlaylist(ctx context.Context, id string) error
	AddPlaylistVideo(ctx context.Context, playlistID, videoID string) (bool, error)
	RemovePlaylistVideo(ctx context.Context, playlistID, videoID string) (bool, error)
}

// EntityStore 内容实体的类型化存取
type EntityStore interface {
	VideoStore
	CommunityPostStore
	CommentStore
	LikeStore
	SubscriptionStore
	PlaylistStore

	UserExists(ctx context.Context, id string) (bool, error)
	// Exists 判断点赞目标或评论父实体是否仍存在
	Exists(ctx context.Context, target model.Target) (bool, error)
}

type entityStore struct {
	db *gorm.DB
}

// NewEntityStore 创建 gorm 实现
func NewEntityStore(db *gorm.DB) EntityStore {
	return &entityStore{db: db}
}

// --- Video ---

func (r *entityStore) CreateVideo(ctx context.Context, video *model.Video) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(video).Error, "video", video.ID)
}

func (r *entityStore) GetVideo(ctx context.Context, id string) (*model.Video, error) {
	var video model.Video
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&video).Error; err != nil {
		return nil, database.TranslateError(err, "video", id)
	}
	return &video, nil
}

func (r *entityStore) UpdateVideo(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", id).Updates(fields)
	return affected(res, "video", id)
}

func (r *entityStore) DeleteVideo(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Video{})
	return affected(res, "video", id)
}

func (r *entityStore) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	return affected(res, "video", id)
}

// --- CommunityPost ---

func (r *entityStore) CreatePost(ctx context.Context, post *model.CommunityPost) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(post).Error, "community post", post.ID)
}

func (r *entityStore) GetPost(ctx context.Context, id string) (*model.CommunityPost, error) {
	var post model.CommunityPost
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, database.TranslateError(err, "community post", id)
	}
	return &post, nil
}

func (r *entityStore) UpdatePostContent(ctx context.Context, id, content string) error {
	res := r.db.WithContext(ctx).Model(&model.CommunityPost{}).Where("id = ?", id).Update("content", content)
	return affected(res, "community post", id)
}

func (r *entityStore) DeletePost(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.CommunityPost{})
	return affected(res, "community post", id)
}

// --- Comment ---

func (r *entityStore) CreateComment(ctx context.Context, comment *model.Comment) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(comment).Error, "comment", comment.ID)
}

func (r *entityStore) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, database.TranslateError(err, "comment", id)
	}
	return &comment, nil
}

func (r *entityStore) UpdateCommentContent(ctx context.Context, id, content string) error {
	res := r.db.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", id).Update("content", content)
	return affected(res, "comment", id)
}

func (r *entityStore) DeleteComment(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Comment{})
	return affected(res, "comment", id)
}

func (r *entityStore) ListCommentIDs(ctx context.Context, parent model.Target) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
		Order("created_at").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, database.TranslateError(err, "comment", parent.String())
	}
	return ids, nil
}

// --- Playlist ---

func (r *entityStore) CreatePlaylist(ctx context.Context, playlist *model.Playlist) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(playlist).Error, "playlist", playlist.ID)
}

func (r *entityStore) GetPlaylist(ctx context.Context, id string) (*model.Playlist, error) {
	var playlist model.Playlist
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&playlist).Error; err != nil {
		return nil, database.TranslateError(err, "playlist", id)
	}
	return &playlist, nil
}

func (r *entityStore) UpdatePlaylist(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Playlist{}).Where("id = ?", id).Updates(fields)
	return affected(res, "playlist", id)
}

// DeletePlaylist playlist_videos 由外键级联删除
func (r *entityStore) DeletePlaylist(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Playlist{})
	return affected(res, "playlist", id)
}

// AddPlaylistVideo 追加到末尾，已存在时返回 false
func (r *entityStore) AddPlaylistVideo(ctx context.Context, playlistID, videoID string) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		INSERT INTO playlist_videos (playlist_id, video_id, position, created_at)
		SELECT ?, ?, COALESCE(MAX(position), 0) + 1, NOW()
		FROM playlist_videos WHERE playlist_id = ?
		ON CONFLICT (playlist_id, video_id) DO NOTHING`,
		playlistID, videoID, playlistID)
	if res.Error != nil {
		return false, database.TranslateError(res.Error, "playlist", playlistID)
	}
	return res.RowsAffected > 0, nil
}

func (r *entityStore) RemovePlaylistVideo(ctx context.Context, playlistID, videoID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
		Delete(&model.PlaylistVideo{})
	if res.Error != nil {
		return false, database.TranslateError(res.Error, "playlist", playlistID)
	}
	return res.RowsAffected > 0, nil
}

// --- Existence ---

func (r *entityStore) UserExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, &userModel.User{}, id, "user")
}

func (r *entityStore) Exists(ctx context.Context, target model.Target) (bool, error) {
	switch target.Kind {
	case model.KindVideo:
		return r.exists(ctx, &model.Video{}, target.ID, "video")
	case model.KindCommunityPost:
		return r.exists(ctx, &model.CommunityPost{}, target.ID, "community post")
	case model.KindComment:
		return r.exists(ctx, &model.Comment{}, target.ID, "comment")
	default:
		return false, nil
	}
}

func (r *entityStore) exists(ctx context.Context, m interface{}, id, resource string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(m).Where("id = ?", id).Limit(1).Count(&count).Error; err != nil {
		return false, database.TranslateError(err, resource, id)
	}
	return count > 0, nil
}

// affected 写操作未命中任何行时视为 NotFound
func affected(res *gorm.DB, resource, id string) error {
	if res.Error != nil {
		return database.TranslateError(res.Error, resource, id)
	}
	if res.RowsAffected == 0 {
		return database.TranslateError(gorm.ErrRecordNotFound, resource, id)
	}
	return nil
}
