package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/catalog-next/internal/logger"

	"gorm.io/gorm"
)

// DefaultWriteTimeout 写操作缺省超时
const DefaultWriteTimeout = 5 * time.Second

// writeContext 为一次写操作生成带超时的上下文，超时后事务回滚
func writeContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// retryWrite 在事务边界上对瞬态数据库错误重试一次
// 约束冲突与业务校验错误不重试
func retryWrite(operation string, fn func() error) error {
	err := fn()
	if err == nil || !isTransientDBError(err) {
		return err
	}
	logger.Warnw("catalog_write_retry", "operation", operation, "error", err)
	return fn()
}

// isConstraintViolation 判断是否为唯一键等约束冲突
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "duplicate key")
}

// isTransientDBError 判断是否为可重试的瞬态数据库错误（死锁、连接中断、库级锁）
func isTransientDBError(err error) bool {
	if err == nil || isConstraintViolation(err) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "bad connection")
}
