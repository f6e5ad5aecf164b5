package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "vidtube/internal/domain/content"
	_ "vidtube/internal/domain/user"
	"vidtube/internal/pkg/config"
	"vidtube/internal/pkg/middleware"
	"vidtube/internal/pkg/registry"
	"vidtube/internal/pkg/uploader"
	"vidtube/pkg/database"
	"vidtube/pkg/logger"
	"vidtube/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// 1. 配置与日志
	config.LoadConfig()
	cfg := config.GlobalConfig

	zl, err := logger.Init(cfg.App.Env, cfg.App.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 基础设施
	db, err := database.InitDatabase(cfg.Database, zl)
	if err != nil {
		zl.Fatal("connect database", zap.Error(err))
	}
	sqlxDB, err := database.NewSQLX(db)
	if err != nil {
		zl.Fatal("init sqlx", zap.Error(err))
	}
	rdb, err := database.InitRedis(ctx, cfg.Redis)
	if err != nil {
		zl.Fatal("connect redis", zap.Error(err))
	}
	defer rdb.Close()

	blob, err := uploader.New(cfg.Blob)
	if err != nil {
		zl.Fatal("init blob store", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	sqlDB, err := db.DB()
	if err != nil {
		zl.Fatal("get sql.DB", zap.Error(err))
	}
	go database.NewPoolMonitor(sqlDB, collector, 15*time.Second).Run(ctx)

	// 3. 路由与中间件
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.QPS), cfg.RateLimit.Burst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				limiter.Cleanup(now)
			}
		}
	}()

	router.Use(
		middleware.RecoveryMiddleware(zl),
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(zl),
		middleware.CORSMiddleware(cfg.Server.AllowOrigins),
		middleware.SecurityHeadersMiddleware(),
		middleware.MetricsMiddleware(collector),
		middleware.RateLimitMiddleware(limiter),
		middleware.BodyLimitMiddleware(cfg.Upload.MaxSizeMB<<20),
	)
	router.MaxMultipartMemory = 32 << 20

	router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// 4. 初始化业务模块
	moduleCtx := &registry.ModuleContext{
		Ctx:     ctx,
		Config:  &cfg,
		DB:      db,
		SQLX:    sqlxDB,
		Redis:   rdb,
		Router:  router,
		Logger:  zl,
		Blob:    blob,
		Metrics: collector,
	}
	if err := registry.InitModules(moduleCtx); err != nil {
		zl.Fatal("init modules", zap.Error(err))
	}

	// 5. 启动并等待退出信号
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		zl.Error("server error", zap.Error(err))
	case <-ctx.Done():
		zl.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}

	// 清理模块资源，补偿队列中未处理的任务写入死信
	stop()
	moduleCtx.Shutdown()
	zl.Info("server stopped")
}
