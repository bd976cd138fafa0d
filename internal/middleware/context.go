// Package middleware 提供 HTTP 中间件：请求 ID、恢复、超时、CORS、访问日志、认证、指标与幂等。
package middleware

import (
	"context"

	"github.com/MorseWayne/content_shop/internal/domain"
)

// contextKey 用于在上下文中存取特定键，避免与外部键冲突。
type contextKey string

// 约定的上下文键集合。
const (
	contextKeyRequestID contextKey = "request_id"
	contextKeyIdentity  contextKey = "identity"
)

// withRequestID 将请求 ID 写入上下文。
func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// RequestIDFromContext 从上下文中读取请求 ID（可能为空）。
func RequestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return s
	}
	return ""
}

// WithIdentity 将已认证的身份写入上下文
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, identity)
}

// IdentityFromContext 读取当前请求的身份，未认证时返回 nil
func IdentityFromContext(ctx context.Context) *domain.Identity {
	if identity, ok := ctx.Value(contextKeyIdentity).(*domain.Identity); ok {
		return identity
	}
	return nil
}
