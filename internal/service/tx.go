package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/mq"
)

// TxRunner 在事务中执行回调，由 *database.DB 实现
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// publishEvent 发布领域事件，失败只记录日志不影响请求
func publishEvent(ctx context.Context, pub mq.Publisher, logger *zap.Logger, eventType string, payload interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, mq.NewEvent(eventType, payload)); err != nil {
		logger.Warn("publish event failed", zap.String("event", eventType), zap.Error(err))
	}
}
