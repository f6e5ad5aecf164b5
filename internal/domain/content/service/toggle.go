package service

import (
	"context"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/repository"
	"vidtube/pkg/apperror"
	"vidtube/pkg/metrics"

	"go.uber.org/zap"
)

// ToggleOutcome 切换结果
type ToggleOutcome string

const (
	OutcomeCreated ToggleOutcome = "created"
	OutcomeRemoved ToggleOutcome = "removed"
)

// ToggleResult 切换结果及受影响的行
type ToggleResult[T any] struct {
	Outcome ToggleOutcome
	Row     *T
}

// Created 是否为新增
func (r ToggleResult[T]) Created() bool {
	return r.Outcome == OutcomeCreated
}

// ToggleEngine 点赞与订阅的原子切换
type ToggleEngine struct {
	store     repository.EntityStore
	parents   parentResolver
	validator IDValidator
	log       *zap.Logger
	metrics   *metrics.Collector
}

// NewToggleEngine 创建切换引擎
func NewToggleEngine(store repository.EntityStore, validator IDValidator, log *zap.Logger, m *metrics.Collector) *ToggleEngine {
	return &ToggleEngine{
		store:     store,
		parents:   parentResolver{store: store},
		validator: validator,
		log:       log,
		metrics:   m,
	}
}

// ToggleLike 存在则删除，否则新增；并发新增时以已存在的行为准，结果收敛为 created
func (e *ToggleEngine) ToggleLike(ctx context.Context, actorID string, target model.Target) (ToggleResult[model.Like], error) {
	var zero ToggleResult[model.Like]

	// 1. 校验 ID
	if err := requireTarget(e.validator, target); err != nil {
		return zero, err
	}

	// 2. 目标存在且可交互
	if err := e.parents.checkTarget(ctx, actorID, target); err != nil {
		return zero, err
	}

	// 3. 原子删除
	deleted, err := e.store.FindAndDeleteLike(ctx, actorID, target)
	if err != nil {
		return zero, apperror.Wrap("toggle like", err)
	}
	if deleted != nil {
		e.record(string(target.Kind), OutcomeRemoved)
		return ToggleResult[model.Like]{Outcome: OutcomeRemoved, Row: deleted}, nil
	}

	// 4. 不存在则新增
	like := &model.Like{LikerID: actorID, TargetKind: target.Kind, TargetID: target.ID}
	created, err := e.store.CreateLike(ctx, like)
	if err != nil {
		return zero, apperror.Wrap("toggle like", err)
	}
	if !created {
		e.log.Debug("concurrent like insert converged",
			zap.String("liker", actorID),
			zap.Stringer("target", target),
		)
	}
	e.record(string(target.Kind), OutcomeCreated)
	return ToggleResult[model.Like]{Outcome: OutcomeCreated, Row: like}, nil
}

// ToggleSubscription 订阅 / 取消订阅频道
func (e *ToggleEngine) ToggleSubscription(ctx context.Context, actorID, channelID string) (ToggleResult[model.Subscription], error) {
	var zero ToggleResult[model.Subscription]

	// 1. 校验 ID
	if err := requireID(e.validator, "channelId", channelID); err != nil {
		return zero, err
	}

	// 2. 频道存在
	ok, err := e.store.UserExists(ctx, channelID)
	if err != nil {
		return zero, apperror.Wrap("toggle subscription", err)
	}
	if !ok {
		return zero, apperror.NotFound("channel", channelID)
	}

	// 3. 禁止订阅自己
	if actorID == channelID {
		return zero, apperror.Forbidden("you cannot subscribe to your own channel")
	}

	// 4. 原子删除
	deleted, err := e.store.FindAndDeleteSubscription(ctx, actorID, channelID)
	if err != nil {
		return zero, apperror.Wrap("toggle subscription", err)
	}
	if deleted != nil {
		e.record("subscription", OutcomeRemoved)
		return ToggleResult[model.Subscription]{Outcome: OutcomeRemoved, Row: deleted}, nil
	}

	// 5. 不存在则新增
	sub := &model.Subscription{SubscriberID: actorID, ChannelID: channelID}
	if _, err := e.store.CreateSubscription(ctx, sub); err != nil {
		return zero, apperror.Wrap("toggle subscription", err)
	}
	e.record("subscription", OutcomeCreated)
	return ToggleResult[model.Subscription]{Outcome: OutcomeCreated, Row: sub}, nil
}

func (e *ToggleEngine) record(kind string, outcome ToggleOutcome) {
	if e.metrics != nil {
		e.metrics.RecordToggle(kind, string(outcome))
	}
}
