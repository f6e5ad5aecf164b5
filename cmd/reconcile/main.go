package main

import (
	"context"
	"flag"
	"log"
	"time"

	"vidtube/internal/domain/content/repository"
	"vidtube/internal/domain/content/service"
	"vidtube/internal/pkg/config"
	"vidtube/internal/pkg/uploader"
	"vidtube/internal/pkg/worker"
	"vidtube/pkg/database"
	"vidtube/pkg/logger"

	"go.uber.org/zap"
)

// 一次性清扫孤儿点赞、评论，并重放死信中的补偿任务
func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	skipDeadLetters := flag.Bool("skip-dead-letters", false, "only run the set-based orphan sweep")
	flag.Parse()

	config.LoadConfig()
	cfg := config.GlobalConfig

	zl, err := logger.Init(cfg.App.Env, cfg.App.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.InitDatabase(cfg.Database, zl)
	if err != nil {
		zl.Fatal("connect database", zap.Error(err))
	}

	blob, err := uploader.New(cfg.Blob)
	if err != nil {
		zl.Fatal("init blob store", zap.Error(err))
	}

	var deadLetter worker.DeadLetter
	if !*skipDeadLetters {
		rdb, err := database.InitRedis(ctx, cfg.Redis)
		if err != nil {
			zl.Fatal("connect redis", zap.Error(err))
		}
		defer rdb.Close()
		deadLetter = worker.NewRedisDeadLetter(rdb, cfg.Cleanup.DeadLetterKey)
	}

	store := repository.NewEntityStore(db)
	purger := service.NewCascadeDeleter(store, blob, nil, service.UUIDValidator{}, zl, nil)
	reconciler := service.NewReconciler(store, repository.NewSweepRepository(db), purger, blob, deadLetter, zl, nil)

	start := time.Now()
	result, err := reconciler.Sweep(ctx)
	if err != nil {
		zl.Fatal("sweep failed", zap.Error(err))
	}

	for entity, n := range result.Orphans {
		zl.Info("orphans removed", zap.String("entity", entity), zap.Int64("rows", n))
	}
	zl.Info("reconcile finished",
		zap.Int("dead_letters", result.DeadLetters),
		zap.Int("requeued", result.DeadLettersRetry),
		zap.Duration("elapsed", time.Since(start)),
	)
}
