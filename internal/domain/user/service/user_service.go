package service

import (
	"context"
	"errors"
	"strings"

	"vidtube/internal/domain/user/model"
	"vidtube/internal/domain/user/repository"
	"vidtube/internal/pkg/uploader"
	"vidtube/pkg/apperror"
	"vidtube/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials 用户名或密码错误，由 handler 映射为 401
var ErrInvalidCredentials = errors.New("invalid user credentials")

// RegisterInput 注册参数
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

// Tokens 登录结果
type Tokens struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// UserService 用户服务接口
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Login(ctx context.Context, username, email, password string) (*Tokens, error)
	Logout(ctx context.Context, userID string) error
	RefreshAccessToken(ctx context.Context, refreshToken string) (*Tokens, error)
	GetCurrentUser(ctx context.Context, userID string) (*model.User, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	UpdateImage(ctx context.Context, userID string, field ImageField, localPath string) (*model.User, error)
}

// ImageField 可上传的用户图片
type ImageField string

const (
	ImageAvatar     ImageField = "avatar"
	ImageCoverImage ImageField = "cover_image"
)

// userService 实现
type userService struct {
	repo repository.UserRepository
	blob uploader.BlobStore
	log  *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository, blob uploader.BlobStore, log *zap.Logger) UserService {
	return &userService{repo: repo, blob: blob, log: log}
}

// Register 注册
func (s *userService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)
	if username == "" || email == "" || fullName == "" || input.Password == "" {
		return nil, apperror.InvalidArgument("user", "all fields are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("hash password", err)
	}

	user := &model.User{
		Username: username,
		Email:    email,
		FullName: fullName,
		Password: string(hash),
	}
	// 唯一索引兜底，并发注册同名时返回 Conflict
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 用户名或邮箱登录
func (s *userService) Login(ctx context.Context, username, email, password string) (*Tokens, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" && email == "" {
		return nil, apperror.InvalidArgument("username", "username or email is required")
	}

	// 1. 查询用户
	user, err := s.repo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. 校验密码
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 签发 token 并保存 refresh token
	return s.issueTokens(ctx, user)
}

// Logout 清除 refresh token
func (s *userService) Logout(ctx context.Context, userID string) error {
	return s.repo.UpdateFields(ctx, userID, map[string]interface{}{"refresh_token": ""})
}

// RefreshAccessToken 用 refresh token 换取新的 token 对，旧 refresh token 失效
func (s *userService) RefreshAccessToken(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := utils.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*Tokens, error) {
	access, _, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, apperror.Internal("generate access token", err)
	}
	refresh, _, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperror.Internal("generate refresh token", err)
	}

	if err := s.repo.UpdateFields(ctx, user.ID, map[string]interface{}{"refresh_token": refresh}); err != nil {
		return nil, err
	}
	user.RefreshToken = refresh

	return &Tokens{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// GetCurrentUser 获取当前用户
func (s *userService) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateAccount 更新昵称与邮箱
func (s *userService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, apperror.InvalidArgument("user", "fullName and email are required")
	}

	if err := s.repo.UpdateFields(ctx, userID, map[string]interface{}{
		"full_name": fullName,
		"email":     email,
	}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, userID)
}

// ChangePassword 修改密码
func (s *userService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return apperror.InvalidArgument("newPassword", "must not be empty")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return apperror.InvalidArgument("oldPassword", "incorrect password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Internal("hash password", err)
	}
	return s.repo.UpdateFields(ctx, userID, map[string]interface{}{"password": string(hash)})
}

// UpdateImage 上传头像或封面，成功后删除旧图
func (s *userService) UpdateImage(ctx context.Context, userID string, field ImageField, localPath string) (*model.User, error) {
	defer uploader.Discard(localPath)

	if field != ImageAvatar && field != ImageCoverImage {
		return nil, apperror.InvalidArgument("field", "unsupported image field")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	old := user.Avatar
	if field == ImageCoverImage {
		old = user.CoverImage
	}

	url, err := s.blob.Upload(ctx, localPath, uploader.CategoryImage)
	if err != nil {
		return nil, apperror.Internal("upload image", err)
	}

	if err := s.repo.UpdateFields(ctx, userID, map[string]interface{}{string(field): url}); err != nil {
		if destroyErr := s.blob.Destroy(ctx, uploader.CategoryImage, url); destroyErr != nil {
			s.log.Warn("failed to release uploaded image", zap.String("url", url), zap.Error(destroyErr))
		}
		return nil, err
	}

	if old != "" {
		if err := s.blob.Destroy(ctx, uploader.CategoryImage, old); err != nil {
			s.log.Warn("failed to release previous image", zap.String("url", old), zap.Error(err))
		}
	}

	if field == ImageAvatar {
		user.Avatar = url
	} else {
		user.CoverImage = url
	}
	return user, nil
}
