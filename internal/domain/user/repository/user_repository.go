package repository

import (
	"context"

	"vidtube/internal/domain/user/model"
	"vidtube/pkg/database"

	"gorm.io/gorm"
)

// UserRepository 接口定义
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

// userRepository 实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建新的仓库实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 创建用户，用户名或邮箱重复时返回 Conflict
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(user).Error, "user", user.Username)
}

// GetByID 根据ID获取用户
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, database.TranslateError(err, "user", id)
	}
	return &user, nil
}

// GetByUsernameOrEmail 按用户名或邮箱查找，空字段不参与匹配
func (r *userRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("(username = ? AND ? <> '') OR (email = ? AND ? <> '')", username, username, email, email).
		First(&user).Error; err != nil {
		return nil, database.TranslateError(err, "user", username+email)
	}
	return &user, nil
}

// UpdateFields 按字段更新
func (r *userRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return database.TranslateError(res.Error, "user", id)
	}
	if res.RowsAffected == 0 {
		return database.TranslateError(gorm.ErrRecordNotFound, "user", id)
	}
	return nil
}
