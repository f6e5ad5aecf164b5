package user

import (
	"vidtube/internal/domain/user/handler"
	"vidtube/internal/domain/user/repository"
	"vidtube/internal/domain/user/service"
	"vidtube/internal/pkg/middleware"
	"vidtube/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 用户模块优先级最高，因为其他模块可能依赖它
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	userService := service.NewUserService(userRepo, ctx.Blob, ctx.Logger.Named("user"))
	userHandler := handler.NewUserHandler(userService, ctx.Config.Upload.TempDir)

	// 2. 路由注册
	setupRoutes(ctx.Router, userHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	g := r.Group("/users")

	// 公开路由
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh-token", h.RefreshToken)

	// 受保护的路由
	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("/logout", h.Logout)
		auth.GET("/current-user", h.CurrentUser)
		auth.PATCH("/update-account", h.UpdateAccount)
		auth.POST("/change-password", h.ChangePassword)
		auth.PATCH("/avatar", h.UpdateAvatar)
		auth.PATCH("/cover-image", h.UpdateCoverImage)
	}
}
