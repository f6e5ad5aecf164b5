package repository

import (
	"context"
	"errors"

	"vidtube/internal/domain/content/model"
	"vidtube/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindAndDeleteLike DELETE ... RETURNING，删除与读取在同一条语句内完成
func (r *entityStore) FindAndDeleteLike(ctx context.Context, likerID string, target model.Target) (*model.Like, error) {
	var deleted []model.Like
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("liker_id = ? AND target_kind = ? AND target_id = ?", likerID, target.Kind, target.ID).
		Delete(&deleted).Error
	if err != nil {
		return nil, database.TranslateError(err, "like", target.String())
	}
	if len(deleted) == 0 {
		return nil, nil
	}
	return &deleted[0], nil
}

// CreateLike INSERT ... ON CONFLICT DO NOTHING，唯一索引保证同一用户对同一目标至多一行
func (r *entityStore) CreateLike(ctx context.Context, like *model.Like) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "liker_id"}, {Name: "target_kind"}, {Name: "target_id"}},
			DoNothing: true,
		}).
		Create(like)
	if res.Error != nil {
		return false, database.TranslateError(res.Error, "like", like.Target().String())
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// 并发请求已插入同一行；该行随后又被删除时按已收敛处理，返回尝试插入的行
	var existing model.Like
	err := r.db.WithContext(ctx).
		Where("liker_id = ? AND target_kind = ? AND target_id = ?", like.LikerID, like.TargetKind, like.TargetID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, database.TranslateError(err, "like", like.Target().String())
	}
	*like = existing
	return false, nil
}

func (r *entityStore) DeleteLikesByTarget(ctx context.Context, target model.Target) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
		Delete(&model.Like{})
	if res.Error != nil {
		return 0, database.TranslateError(res.Error, "like", target.String())
	}
	return res.RowsAffected, nil
}

func (r *entityStore) FindAndDeleteSubscription(ctx context.Context, subscriberID, channelID string) (*model.Subscription, error) {
	var deleted []model.Subscription
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Delete(&deleted).Error
	if err != nil {
		return nil, database.TranslateError(err, "subscription", channelID)
	}
	if len(deleted) == 0 {
		return nil, nil
	}
	return &deleted[0], nil
}

func (r *entityStore) CreateSubscription(ctx context.Context, sub *model.Subscription) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subscriber_id"}, {Name: "channel_id"}},
			DoNothing: true,
		}).
		Create(sub)
	if res.Error != nil {
		return false, database.TranslateError(res.Error, "subscription", sub.ChannelID)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var existing model.Subscription
	err := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND channel_id = ?", sub.SubscriberID, sub.ChannelID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, database.TranslateError(err, "subscription", sub.ChannelID)
	}
	*sub = existing
	return false, nil
}
