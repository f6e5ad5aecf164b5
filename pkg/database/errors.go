package database

import (
	"errors"

	"vidtube/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation 判断是否违反唯一约束
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// TranslateError 把驱动错误映射为业务错误类别
func TranslateError(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound(resource, id)
	case IsUniqueViolation(err):
		var pgErr *pgconn.PgError
		errors.As(err, &pgErr)
		return apperror.Conflict(resource, pgErr.ConstraintName)
	default:
		return apperror.Internal(resource, err)
	}
}
