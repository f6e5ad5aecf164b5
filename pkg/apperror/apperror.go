package apperror

import (
	"errors"
	"fmt"
)

// 错误类别，服务层与 HTTP 层之间的约定
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal error")
)

// AppError 带类别的业务错误
type AppError struct {
	Err     error  // 类别哨兵错误
	Message string // 面向调用方的描述
	Cause   error  // 底层错误（仅 Internal 使用，不对外输出）
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// InvalidArgument 参数非法
func InvalidArgument(field, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidArgument,
		Message: fmt.Sprintf("%s: %s", field, message),
	}
}

// NotFound 资源不存在或对当前用户不可见
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Forbidden 无权操作
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Conflict 唯一约束冲突
func Conflict(resource, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, message),
	}
}

// Internal 存储或对象存储故障
func Internal(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: op,
		Cause:   cause,
	}
}

// Wrap 已分类的错误原样返回，否则包装为 Internal
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return Internal(op, err)
}

// Kind 返回错误所属类别，未分类的错误视为 Internal
func Kind(err error) error {
	for _, kind := range []error{ErrInvalidArgument, ErrNotFound, ErrForbidden, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}
