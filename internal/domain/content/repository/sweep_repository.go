package repository

import (
	"context"

	"vidtube/pkg/apperror"

	"gorm.io/gorm"
)

// SweepRepository 孤儿数据清理，按集合一次性删除
type SweepRepository interface {
	// SweepOrphans 按"先点赞后评论"的顺序删除父实体已不存在的行，返回各步删除行数
	SweepOrphans(ctx context.Context) (map[string]int64, error)
}

type sweepStep struct {
	name string
	sql  string
}

// 顺序即依赖：孤儿评论的点赞必须先于孤儿评论删除
var sweepSteps = []sweepStep{
	{"orphan_comment_likes", `
		DELETE FROM likes l USING comments c
		WHERE l.target_kind = 'comment' AND l.target_id = c.id
		AND (
			(c.parent_kind = 'video' AND NOT EXISTS (SELECT 1 FROM videos v WHERE v.id = c.parent_id))
			OR (c.parent_kind = 'community_post' AND NOT EXISTS (SELECT 1 FROM community_posts p WHERE p.id = c.parent_id))
		)`},
	{"orphan_comments", `
		DELETE FROM comments c
		WHERE (
			(c.parent_kind = 'video' AND NOT EXISTS (SELECT 1 FROM videos v WHERE v.id = c.parent_id))
			OR (c.parent_kind = 'community_post' AND NOT EXISTS (SELECT 1 FROM community_posts p WHERE p.id = c.parent_id))
		)
		AND NOT EXISTS (SELECT 1 FROM likes l WHERE l.target_kind = 'comment' AND l.target_id = c.id)`},
	{"dangling_comment_likes", `
		DELETE FROM likes l
		WHERE l.target_kind = 'comment' AND NOT EXISTS (SELECT 1 FROM comments c WHERE c.id = l.target_id)`},
	{"dangling_video_likes", `
		DELETE FROM likes l
		WHERE l.target_kind = 'video' AND NOT EXISTS (SELECT 1 FROM videos v WHERE v.id = l.target_id)`},
	{"dangling_post_likes", `
		DELETE FROM likes l
		WHERE l.target_kind = 'community_post' AND NOT EXISTS (SELECT 1 FROM community_posts p WHERE p.id = l.target_id)`},
}

type sweepRepository struct {
	db *gorm.DB
}

// NewSweepRepository 创建孤儿清理仓储
func NewSweepRepository(db *gorm.DB) SweepRepository {
	return &sweepRepository{db: db}
}

func (r *sweepRepository) SweepOrphans(ctx context.Context) (map[string]int64, error) {
	removed := make(map[string]int64, len(sweepSteps))
	for _, step := range sweepSteps {
		res := r.db.WithContext(ctx).Exec(step.sql)
		if res.Error != nil {
			return removed, apperror.Internal("sweep "+step.name, res.Error)
		}
		removed[step.name] = res.RowsAffected
	}
	return removed, nil
}
