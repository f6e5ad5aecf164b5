package response

import (
	"errors"
	"net/http"

	"vidtube/pkg/apperror"
	"vidtube/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应 (HTTP 201)
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "created",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// FromError 按错误类别映射 HTTP 状态码与业务码
func FromError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	msg := "internal server error"
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	switch apperror.Kind(err) {
	case apperror.ErrInvalidArgument:
		Error(c, http.StatusBadRequest, ErrInvalidParam, msg)
	case apperror.ErrNotFound:
		Error(c, http.StatusNotFound, ErrResourceNotFound, msg)
	case apperror.ErrForbidden:
		Error(c, http.StatusForbidden, ErrNoPermission, msg)
	case apperror.ErrConflict:
		Error(c, http.StatusConflict, ErrResourceConflict, msg)
	default:
		logger.Log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		Error(c, http.StatusInternalServerError, ErrServerInternal, "internal server error")
	}
}
