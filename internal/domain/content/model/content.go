package model

import (
	"errors"
	"strings"
	"time"

	baseModel "vidtube/pkg/model"
)

// TargetKind 点赞目标 / 评论父实体类别
type TargetKind string

const (
	KindVideo         TargetKind = "video"
	KindComment       TargetKind = "comment"
	KindCommunityPost TargetKind = "community_post"
)

// Valid 是否为已知类别
func (k TargetKind) Valid() bool {
	switch k {
	case KindVideo, KindComment, KindCommunityPost:
		return true
	}
	return false
}

// Target 带类别的实体引用，点赞目标与评论父实体都用它表示
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

func VideoTarget(id string) Target         { return Target{Kind: KindVideo, ID: id} }
func CommentTarget(id string) Target       { return Target{Kind: KindComment, ID: id} }
func CommunityPostTarget(id string) Target { return Target{Kind: KindCommunityPost, ID: id} }

// CanParentComment 只有视频和动态可以挂评论
func (t Target) CanParentComment() bool {
	return t.Kind == KindVideo || t.Kind == KindCommunityPost
}

func (t Target) String() string {
	return string(t.Kind) + "/" + t.ID
}

// Ownable 有归属者的实体
type Ownable interface {
	Owner() string
}

// Video 视频
type Video struct {
	baseModel.BaseModel
	OwnerID     string  `gorm:"type:uuid;index;not null" json:"owner"`
	Title       string  `gorm:"type:varchar(255);not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	VideoFile   string  `gorm:"not null" json:"videoFile"`
	Thumbnail   string  `gorm:"not null" json:"thumbnail"`
	Duration    float64 `json:"duration"`
	Views       int64   `gorm:"not null" json:"views"`
	IsPublished bool    `gorm:"not null" json:"isPublished"`
}

func (v *Video) Owner() string { return v.OwnerID }

// CommunityPost 社区动态
type CommunityPost struct {
	baseModel.BaseModel
	OwnerID string `gorm:"type:uuid;index;not null" json:"owner"`
	Content string `gorm:"type:text;not null" json:"content"`
}

func (p *CommunityPost) Owner() string { return p.OwnerID }

// Comment 评论，父实体为视频或动态之一
type Comment struct {
	baseModel.BaseModel
	Content    string     `gorm:"type:text;not null" json:"content"`
	OwnerID    string     `gorm:"type:uuid;index;not null" json:"owner"`
	ParentKind TargetKind `gorm:"type:varchar(20);not null;index:idx_comments_parent,priority:1" json:"parentKind"`
	ParentID   string     `gorm:"type:uuid;not null;index:idx_comments_parent,priority:2" json:"parentId"`
}

func (c *Comment) Owner() string { return c.OwnerID }

// Parent 父实体引用
func (c *Comment) Parent() Target {
	return Target{Kind: c.ParentKind, ID: c.ParentID}
}

var (
	ErrInvalidParent = errors.New("comment parent must be a video or a community post")
	ErrEmptyContent  = errors.New("content is required")
)

// NewComment 构造评论，父实体由单个 Target 给出，不存在同时挂两个父实体的情况
func NewComment(ownerID string, parent Target, content string) (*Comment, error) {
	if !parent.CanParentComment() || parent.ID == "" {
		return nil, ErrInvalidParent
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	return &Comment{
		Content:    content,
		OwnerID:    ownerID,
		ParentKind: parent.Kind,
		ParentID:   parent.ID,
	}, nil
}

// Like 点赞，(liker_id, target_kind, target_id) 唯一
type Like struct {
	baseModel.BaseModel
	LikerID    string     `gorm:"type:uuid;not null;uniqueIndex:idx_likes_liker_target,priority:1" json:"likedBy"`
	TargetKind TargetKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_likes_liker_target,priority:2;index:idx_likes_target,priority:1" json:"targetKind"`
	TargetID   string     `gorm:"type:uuid;not null;uniqueIndex:idx_likes_liker_target,priority:3;index:idx_likes_target,priority:2" json:"targetId"`
}

// Target 点赞目标
func (l *Like) Target() Target {
	return Target{Kind: l.TargetKind, ID: l.TargetID}
}

// Subscription 订阅，(subscriber_id, channel_id) 唯一且两者不同
type Subscription struct {
	baseModel.BaseModel
	SubscriberID string `gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_pair,priority:1" json:"subscriber"`
	ChannelID    string `gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_pair,priority:2;index" json:"channel"`
}

// Playlist 播放列表
type Playlist struct {
	baseModel.BaseModel
	OwnerID     string `gorm:"type:uuid;index;not null" json:"owner"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

func (p *Playlist) Owner() string { return p.OwnerID }

// PlaylistVideo 播放列表中的视频，按 position 排序
type PlaylistVideo struct {
	PlaylistID string    `gorm:"primaryKey;type:uuid"`
	VideoID    string    `gorm:"primaryKey;type:uuid"`
	Position   int       `gorm:"not null"`
	CreatedAt  time.Time
}
