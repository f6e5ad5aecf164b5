package model

import (
	baseModel "vidtube/pkg/model"
)

// User 用户模型，用户名与邮箱统一小写存储
type User struct {
	baseModel.BaseModel
	Username     string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName     string `gorm:"type:varchar(128);not null" json:"fullName"`
	Avatar       string `json:"avatar"`
	CoverImage   string `json:"coverImage"`
	Password     string `json:"-"` // bcrypt 哈希，不返回给前端
	RefreshToken string `json:"-"`
}
