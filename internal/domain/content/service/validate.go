package service

import (
	"vidtube/internal/domain/content/model"
	"vidtube/pkg/apperror"
	baseModel "vidtube/pkg/model"
)

// IDValidator 校验 ID 格式，与存储实现解耦
type IDValidator interface {
	Valid(id string) bool
}

// UUIDValidator 以 UUID 作为实体 ID
type UUIDValidator struct{}

func (UUIDValidator) Valid(id string) bool {
	return baseModel.IsValidID(id)
}

func requireID(v IDValidator, field, id string) error {
	if !v.Valid(id) {
		return apperror.InvalidArgument(field, "invalid id")
	}
	return nil
}

func requireTarget(v IDValidator, target model.Target) error {
	if !target.Kind.Valid() {
		return apperror.InvalidArgument("target", "unknown target kind")
	}
	return requireID(v, string(target.Kind)+"Id", target.ID)
}
