package content

import (
	"time"

	"vidtube/internal/domain/content/handler"
	"vidtube/internal/domain/content/repository"
	"vidtube/internal/domain/content/service"
	"vidtube/internal/pkg/middleware"
	"vidtube/internal/pkg/registry"
	"vidtube/internal/pkg/worker"

	"github.com/gin-gonic/gin"
)

// ContentModule 视频、动态、评论、点赞、订阅、播放列表
type ContentModule struct{}

func init() {
	registry.Register(&ContentModule{})
}

func (m *ContentModule) Name() string {
	return "content"
}

func (m *ContentModule) Priority() int {
	return 10
}

func (m *ContentModule) Init(ctx *registry.ModuleContext) error {
	log := ctx.Logger.Named("content")
	cfg := ctx.Config

	// 1. 存储
	store := repository.NewEntityStore(ctx.DB)
	agg := repository.NewAggregateRepository(ctx.SQLX)
	sweeper := repository.NewSweepRepository(ctx.DB)
	validator := service.UUIDValidator{}

	// 2. 补偿：死信 + 工作池
	var deadLetter worker.DeadLetter
	if ctx.Redis != nil {
		deadLetter = worker.NewRedisDeadLetter(ctx.Redis, cfg.Cleanup.DeadLetterKey)
	}
	purger := service.NewCascadeDeleter(store, ctx.Blob, nil, validator, log, ctx.Metrics)
	reconciler := service.NewReconciler(store, sweeper, purger, ctx.Blob, deadLetter, log.Named("reconcile"), ctx.Metrics)

	pool := worker.NewWorkerPool(reconciler, deadLetter, worker.Options{
		WorkerNum:  cfg.Cleanup.Workers,
		BufferSize: cfg.Cleanup.BufferSize,
		MaxRetry:   cfg.Cleanup.MaxRetry,
		RetryDelay: time.Second,
	}, log.Named("cleanup"), ctx.Metrics)
	pool.Start(ctx.Ctx)
	ctx.OnShutdown(pool.Stop)

	if cfg.Cleanup.SweepInterval > 0 {
		go reconciler.RunPeriodic(ctx.Ctx, cfg.Cleanup.SweepInterval)
	}

	// 3. 服务
	cascade := service.NewCascadeDeleter(store, ctx.Blob, pool, validator, log, ctx.Metrics)
	filter := service.NewVisibilityFilter(store)
	toggles := service.NewToggleEngine(store, validator, log, ctx.Metrics)

	videoHandler := handler.NewVideoHandler(
		service.NewVideoService(store, agg, ctx.Blob, cascade, filter, validator, log), cfg.Upload.TempDir)
	postHandler := handler.NewCommunityPostHandler(service.NewCommunityPostService(store, agg, cascade, validator))
	commentHandler := handler.NewCommentHandler(service.NewCommentService(store, agg, cascade, filter, validator))
	interactionHandler := handler.NewInteractionHandler(service.NewInteractionService(store, agg, toggles, filter, validator))
	playlistHandler := handler.NewPlaylistHandler(service.NewPlaylistService(store, agg, filter, validator))

	// 4. 路由
	setupRoutes(ctx.Router, routes{
		video:       videoHandler,
		post:        postHandler,
		comment:     commentHandler,
		interaction: interactionHandler,
		playlist:    playlistHandler,
	})
	return nil
}

type routes struct {
	video       *handler.VideoHandler
	post        *handler.CommunityPostHandler
	comment     *handler.CommentHandler
	interaction *handler.InteractionHandler
	playlist    *handler.PlaylistHandler
}

func setupRoutes(r *gin.Engine, h routes) {
	// 所有内容接口都需要登录
	auth := r.Group("")
	auth.Use(middleware.AuthMiddleware())

	videos := auth.Group("/videos")
	{
		videos.GET("", h.video.List)
		videos.POST("", h.video.Publish)
		videos.GET("/:videoId", h.video.Get)
		videos.PATCH("/:videoId", h.video.Update)
		videos.DELETE("/:videoId", h.video.Delete)
		videos.PATCH("/toggle/publish/:videoId", h.video.TogglePublish)
	}

	posts := auth.Group("/community-posts")
	{
		posts.GET("", h.post.ListMine)
		posts.POST("", h.post.Create)
		posts.GET("/user/:userId", h.post.ListByUser)
		posts.PATCH("/:communityPostId", h.post.Update)
		posts.DELETE("/:communityPostId", h.post.Delete)
	}

	comments := auth.Group("/comments")
	{
		comments.GET("/vid/:videoId", h.comment.ListForVideo)
		comments.POST("/vid/:videoId", h.comment.AddToVideo)
		comments.GET("/cp/:communityPostId", h.comment.ListForPost)
		comments.POST("/cp/:communityPostId", h.comment.AddToPost)
		comments.PATCH("/c/:commentId", h.comment.Update)
		comments.DELETE("/c/:commentId", h.comment.Delete)
	}

	likes := auth.Group("/likes")
	{
		likes.POST("/toggle/v/:videoId", h.interaction.ToggleVideoLike)
		likes.POST("/toggle/c/:commentId", h.interaction.ToggleCommentLike)
		likes.POST("/toggle/cp/:communityPostId", h.interaction.TogglePostLike)
		likes.GET("/videos", h.interaction.LikedVideos)
	}

	subs := auth.Group("/subscriptions")
	{
		subs.POST("/c/:channelId", h.interaction.ToggleSubscription)
		subs.GET("/c/:channelId", h.interaction.Subscribers)
		subs.GET("/u/:subscriberId", h.interaction.SubscribedChannels)
	}

	playlists := auth.Group("/playlists")
	{
		playlists.POST("", h.playlist.Create)
		playlists.GET("/user/:userId", h.playlist.ListByUser)
		playlists.GET("/:playlistId", h.playlist.Get)
		playlists.PATCH("/:playlistId", h.playlist.Update)
		playlists.DELETE("/:playlistId", h.playlist.Delete)
		playlists.PATCH("/add/:playlistId/:videoId", h.playlist.AddVideo)
		playlists.PATCH("/remove/:playlistId/:videoId", h.playlist.RemoveVideo)
	}

	auth.GET("/users/c/:username", h.interaction.ChannelProfile)
}
