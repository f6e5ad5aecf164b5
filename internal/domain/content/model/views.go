package model

import "time"

// OwnerSummary 列表中附带的作者信息
type OwnerSummary struct {
	ID       string `db:"id" json:"_id"`
	Username string `db:"username" json:"username"`
	FullName string `db:"full_name" json:"fullName"`
	Avatar   string `db:"avatar" json:"avatar"`
}

// VideoView 视频读模型，计数在读取时聚合
type VideoView struct {
	ID            string       `db:"id" json:"_id"`
	Title         string       `db:"title" json:"title"`
	Description   string       `db:"description" json:"description"`
	VideoFile     string       `db:"video_file" json:"videoFile"`
	Thumbnail     string       `db:"thumbnail" json:"thumbnail"`
	Duration      float64      `db:"duration" json:"duration"`
	Views         int64        `db:"views" json:"views"`
	IsPublished   bool         `db:"is_published" json:"isPublished"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
	Owner         OwnerSummary `db:"owner" json:"owner"`
	LikesCount    int64        `db:"likes_count" json:"likesCount"`
	CommentsCount int64        `db:"comments_count" json:"commentsCount"`
	IsLiked       bool         `db:"is_liked" json:"isLiked"`
}

// VideoDetail 视频详情，附带作者频道的订阅信息
type VideoDetail struct {
	VideoView
	OwnerSubscribers int64 `db:"owner_subscribers" json:"ownerSubscribersCount"`
	IsSubscribed     bool  `db:"is_subscribed" json:"isSubscribed"`
}

// PlaylistVideoRow 播放列表中的视频及其位置
type PlaylistVideoRow struct {
	VideoView
	Position int `db:"position" json:"position"`
}

// PlaylistView 播放列表读模型
type PlaylistView struct {
	ID          string             `json:"_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Thumbnail   string             `json:"thumbnail"`
	Owner       string             `json:"owner"`
	CreatedAt   time.Time          `json:"createdAt"`
	TotalVideos int                `json:"totalVideos"`
	TotalViews  int64              `json:"totalViews"`
	Videos      []PlaylistVideoRow `json:"videos"`
}

// PlaylistSummary 用户播放列表列表项
type PlaylistSummary struct {
	ID          string    `db:"id" json:"_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Thumbnail   string    `db:"thumbnail" json:"thumbnail"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	TotalVideos int64     `db:"total_videos" json:"totalVideos"`
}

// CommentView 评论读模型
type CommentView struct {
	ID         string       `db:"id" json:"_id"`
	Content    string       `db:"content" json:"content"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updatedAt"`
	Owner      OwnerSummary `db:"owner" json:"owner"`
	LikesCount int64        `db:"likes_count" json:"likesCount"`
	IsLiked    bool         `db:"is_liked" json:"isLiked"`
}

// CommunityPostView 动态读模型，commentsCount 不落库
type CommunityPostView struct {
	ID            string       `db:"id" json:"_id"`
	Content       string       `db:"content" json:"content"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updatedAt"`
	Owner         OwnerSummary `db:"owner" json:"owner"`
	LikesCount    int64        `db:"likes_count" json:"likesCount"`
	CommentsCount int64        `db:"comments_count" json:"commentsCount"`
	IsLiked       bool         `db:"is_liked" json:"isLiked"`
}

// ChannelProfile 频道主页
type ChannelProfile struct {
	ID                        string    `db:"id" json:"_id"`
	Username                  string    `db:"username" json:"username"`
	FullName                  string    `db:"full_name" json:"fullName"`
	Email                     string    `db:"email" json:"email,omitempty"`
	Avatar                    string    `db:"avatar" json:"avatar"`
	CoverImage                string    `db:"cover_image" json:"coverImage"`
	CreatedAt                 time.Time `db:"created_at" json:"createdAt"`
	SubscribersCount          int64     `db:"subscribers_count" json:"subscribersCount"`
	ChannelsSubscribedToCount int64     `db:"channels_subscribed_to_count" json:"channelsSubscribedToCount"`
	VideosCount               int64     `db:"videos_count" json:"videosCount"`
	IsSubscribed              bool      `db:"is_subscribed" json:"isSubscribed"`
}

// ChannelSummary 订阅者 / 已订阅频道列表项
type ChannelSummary struct {
	OwnerSummary
	SubscribersCount int64 `db:"subscribers_count" json:"subscribersCount"`
	SubscribedBack   bool  `db:"subscribed_back" json:"subscribedBack"`
}
