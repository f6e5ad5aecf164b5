package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidtube/internal/domain/content/model"
	"vidtube/internal/domain/content/repository"
	"vidtube/internal/pkg/uploader"
	"vidtube/internal/pkg/worker"
	"vidtube/pkg/metrics"

	"go.uber.org/zap"
)

// deadLetterBatch 每次清扫从死信中取出的任务数
const deadLetterBatch = 100

// SweepResult 一次清扫的结果
type SweepResult struct {
	Orphans          map[string]int64 `json:"orphans"`
	DeadLetters      int              `json:"deadLetters"`
	DeadLettersRetry int              `json:"deadLettersRetry"`
}

// Reconciler 处理级联失败后遗留的孤儿数据
type Reconciler struct {
	store      repository.EntityStore
	sweeper    repository.SweepRepository
	cascade    *CascadeDeleter
	blob       uploader.BlobStore
	deadLetter worker.DeadLetter
	log        *zap.Logger
	metrics    *metrics.Collector
}

// NewReconciler 创建补偿器，deadLetter 可为 nil
func NewReconciler(store repository.EntityStore, sweeper repository.SweepRepository, cascade *CascadeDeleter, blob uploader.BlobStore, deadLetter worker.DeadLetter, log *zap.Logger, m *metrics.Collector) *Reconciler {
	return &Reconciler{
		store:      store,
		sweeper:    sweeper,
		cascade:    cascade,
		blob:       blob,
		deadLetter: deadLetter,
		log:        log,
		metrics:    m,
	}
}

// Process 实现 worker.Processor；只在确认父实体已不存在时才清理其依赖数据
func (r *Reconciler) Process(ctx context.Context, task worker.CleanupTask) error {
	parent := model.Target{Kind: model.TargetKind(task.Kind), ID: task.ID}
	if !parent.Kind.Valid() {
		r.log.Warn("discarding cleanup task with unknown kind", zap.Stringer("task", task))
		return nil
	}

	// 1. 确认父实体已删除
	exists, err := r.store.Exists(ctx, parent)
	if err != nil {
		return fmt.Errorf("check %s: %w", parent, err)
	}
	if exists {
		r.log.Warn("parent still present, skipping cleanup", zap.Stringer("task", task))
		return nil
	}

	// 2. 重跑级联
	_, purgeErr := r.cascade.PurgeDependents(ctx, parent)

	// 3. 释放媒体
	var mediaErr error
	failed, _ := destroyMedia(ctx, r.blob, task.Media, func(ref worker.MediaRef, err error) {
		r.log.Warn("release media failed", zap.String("url", ref.URL), zap.Error(err))
	})
	if len(failed) > 0 {
		mediaErr = fmt.Errorf("%d media objects not released", len(failed))
	}

	return errors.Join(purgeErr, mediaErr)
}

// Sweep 集合式清理孤儿行，并重新处理死信中的任务
func (r *Reconciler) Sweep(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}

	// 1. 孤儿行
	orphans, err := r.sweeper.SweepOrphans(ctx)
	result.Orphans = orphans
	for entity, n := range orphans {
		if r.metrics != nil {
			r.metrics.RecordOrphansSwept(entity, n)
		}
	}
	if err != nil {
		return result, err
	}

	// 2. 死信
	if r.deadLetter == nil {
		return result, nil
	}
	tasks, err := r.deadLetter.Drain(ctx, deadLetterBatch)
	if err != nil {
		return result, fmt.Errorf("drain dead letters: %w", err)
	}
	result.DeadLetters = len(tasks)
	for _, task := range tasks {
		if err := r.Process(ctx, task); err != nil {
			// 仍失败则放回，等待下一轮
			task.Reason = err.Error()
			task.Retry++
			result.DeadLettersRetry++
			if pushErr := r.deadLetter.Push(ctx, task); pushErr != nil {
				r.log.Error("failed to requeue dead letter", zap.Stringer("task", task), zap.Error(pushErr))
			}
		}
	}

	r.log.Info("orphan sweep finished",
		zap.Any("orphans", result.Orphans),
		zap.Int("dead_letters", result.DeadLetters),
		zap.Int("requeued", result.DeadLettersRetry),
	)
	return result, nil
}

// RunPeriodic 按固定间隔清扫，直到 ctx 取消
func (r *Reconciler) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.Error("orphan sweep failed", zap.Error(err))
			}
		}
	}
}
