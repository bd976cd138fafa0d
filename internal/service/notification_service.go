package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/mq"
	"github.com/MorseWayne/content_shop/internal/repo"
)

// NotificationService 站内通知：发送者为归属者，只有接收者能查看和标记已读
type NotificationService interface {
	Send(ctx context.Context, identity *domain.Identity, req *domain.CreateNotificationRequest) (*domain.Notification, error)
	List(ctx context.Context, identity *domain.Identity, req domain.NotificationListRequest) (*domain.Page[*domain.Notification], error)
	MarkRead(ctx context.Context, identity *domain.Identity, id int64) (*domain.Notification, error)
}

type notificationService struct {
	notifications repo.NotificationRepository
	users         repo.UserRepository
	tx            TxRunner
	events        mq.Publisher
	logger        *zap.Logger
}

// NewNotificationService 创建通知服务实例
func NewNotificationService(notifications repo.NotificationRepository, users repo.UserRepository, tx TxRunner, events mq.Publisher, logger *zap.Logger) NotificationService {
	if events == nil {
		events = mq.NoopPublisher{}
	}
	return &notificationService{
		notifications: notifications,
		users:         users,
		tx:            tx,
		events:        events,
		logger:        logger,
	}
}

// Send 向指定用户发送通知，接收者不存在或已停用返回 ErrUserNotFound
func (s *notificationService) Send(ctx context.Context, identity *domain.Identity, req *domain.CreateNotificationRequest) (*domain.Notification, error) {
	recipient, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	if recipient == nil || !recipient.IsActive {
		return nil, ErrUserNotFound
	}

	n := &domain.Notification{
		UserID:    recipient.ID,
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: time.Now(),
	}
	if err := AssignOwner(n, identity); err != nil {
		return nil, err
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	publishEvent(ctx, s.events, s.logger, mq.EventNotificationCreated, n)
	return n, nil
}

func (s *notificationService) List(ctx context.Context, identity *domain.Identity, req domain.NotificationListRequest) (*domain.Page[*domain.Notification], error) {
	if identity == nil {
		return nil, ErrForbidden
	}
	req.Normalize()
	items, total, err := s.notifications.ListByRecipient(ctx, identity.UserID, req)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if items == nil {
		items = []*domain.Notification{}
	}
	return &domain.Page[*domain.Notification]{Items: items, Total: total, Page: req.Page, PageSize: req.PageSize}, nil
}

// MarkRead 接收者标记已读，重复标记是幂等的
func (s *notificationService) MarkRead(ctx context.Context, identity *domain.Identity, id int64) (*domain.Notification, error) {
	var result *domain.Notification
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		r := s.notifications.WithTx(tx)
		n, err := r.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get notification: %w", err)
		}
		if n == nil {
			return ErrNotificationNotFound
		}
		if err := checkOwnerID(n.UserID, identity); err != nil {
			return err
		}
		if !n.IsRead {
			if err := r.MarkRead(ctx, id); err != nil {
				return fmt.Errorf("mark notification read: %w", err)
			}
			n.IsRead = true
		}
		result = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
