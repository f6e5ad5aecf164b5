package handler

import (
	"errors"
	"net/http"

	"vidtube/internal/domain/user/service"
	"vidtube/internal/pkg/middleware"
	"vidtube/internal/pkg/uploader"
	"vidtube/pkg/response"

	"github.com/gin-gonic/gin"
)

const refreshTokenCookie = "refreshToken"

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
	tempDir string
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService, tempDir string) *UserHandler {
	return &UserHandler{service: service, tempDir: tempDir}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginInput 登录输入，用户名与邮箱二选一
type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// UpdateAccountInput 更新账户输入
type UpdateAccountInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// ChangePasswordInput 修改密码输入
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// RefreshInput 刷新 token 输入，cookie 优先
type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// Register 处理注册请求
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.Register(c.Request.Context(), service.RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		FullName: input.FullName,
		Password: input.Password,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, user)
}

// Login 处理登录请求
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), input.Username, input.Email, input.Password)
	if err != nil {
		h.authError(c, err)
		return
	}

	setAuthCookies(c, tokens.AccessToken, tokens.RefreshToken)
	response.Success(c, tokens)
}

// Logout 退出登录
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		response.FromError(c, err)
		return
	}
	setAuthCookies(c, "", "")
	response.Success(c, gin.H{})
}

// RefreshToken 刷新 access token
func (h *UserHandler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(refreshTokenCookie)
	if token == "" {
		var input RefreshInput
		_ = c.ShouldBindJSON(&input)
		token = input.RefreshToken
	}
	if token == "" {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Unauthorized request")
		return
	}

	tokens, err := h.service.RefreshAccessToken(c.Request.Context(), token)
	if err != nil {
		h.authError(c, err)
		return
	}

	setAuthCookies(c, tokens.AccessToken, tokens.RefreshToken)
	response.Success(c, tokens)
}

// CurrentUser 当前用户
func (h *UserHandler) CurrentUser(c *gin.Context) {
	user, err := h.service.GetCurrentUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateAccount 更新账户信息
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	var input UpdateAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.UpdateAccount(c.Request.Context(), middleware.CurrentUserID(c), input.FullName, input.Email)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

// ChangePassword 修改密码
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), input.OldPassword, input.NewPassword); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{})
}

// UpdateAvatar 上传头像
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", service.ImageAvatar)
}

// UpdateCoverImage 上传封面
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", service.ImageCoverImage)
}

func (h *UserHandler) updateImage(c *gin.Context, formField string, field service.ImageField) {
	file, err := c.FormFile(formField)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, formField+" file is missing")
		return
	}
	localPath, err := uploader.SaveMultipart(file, h.tempDir)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to store upload")
		return
	}

	user, err := h.service.UpdateImage(c.Request.Context(), middleware.CurrentUserID(c), field, localPath)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *UserHandler) authError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, err.Error())
		return
	}
	response.FromError(c, err)
}

func setAuthCookies(c *gin.Context, access, refresh string) {
	maxAge := 0
	if access == "" {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, access, maxAge, "/", "", true, true)
	c.SetCookie(refreshTokenCookie, refresh, maxAge, "/", "", true, true)
}
