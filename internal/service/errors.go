package service

import "errors"

// 业务错误定义，处理器层据此映射 HTTP 状态码与提示消息
var (
	// 通用
	ErrNotFound = errors.New("record not found")

	// 认证
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("password does not meet policy")

	// 词表
	ErrUnknownGroup   = errors.New("unknown code group")
	ErrUnknownCode    = errors.New("unknown code")
	ErrUnknownParent  = errors.New("unknown parent code")
	ErrDuplicateCode  = errors.New("duplicate short code under parent")
	ErrDepthMismatch  = errors.New("code depth mismatch")
	ErrGroupImmutable = errors.New("root group short code is immutable")
	ErrReorderPartial = errors.New("reorder list must cover all siblings exactly once")

	// 商品主档与规格
	ErrInvalidPrice       = errors.New("price must be non-negative")
	ErrDuplicateLegacyKey = errors.New("duplicate legacy key")
	ErrMasterMissing      = errors.New("master product missing")
	ErrDuplicateSelfCode  = errors.New("self code already exists in tenant")
	ErrInvalidStatus      = errors.New("invalid variant status")
)
