// Package mq 发布领域事件到 RabbitMQ
package mq

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// 事件类型，同时作为 topic 交换机的路由键
const (
	EventUserRegistered      = "user.registered"
	EventOrderCreated        = "order.created"
	EventOrderUpdated        = "order.updated"
	EventNotificationCreated = "notification.created"
)

// Event 领域事件信封
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// NewEvent 创建事件
func NewEvent(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NoopPublisher 未启用消息队列时使用
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, evt Event) error { return nil }
func (NoopPublisher) Close() error                                 { return nil }
