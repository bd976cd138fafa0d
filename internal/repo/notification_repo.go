package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MorseWayne/content_shop/internal/domain"
)

// NotificationRepository 定义通知数据访问接口
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, userID int64, req domain.NotificationListRequest) ([]*domain.Notification, int64, error)
	MarkRead(ctx context.Context, id int64) error
	WithTx(tx *sql.Tx) NotificationRepository
}

type notificationRepo struct {
	db querier
}

// NewNotificationRepository 创建通知仓储实例
func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) WithTx(tx *sql.Tx) NotificationRepository {
	return &notificationRepo{db: tx}
}

const notificationColumns = `id, user_id, message, owner_id, is_read, created_at`

func scanNotification(row rowScanner) (*domain.Notification, error) {
	n := &domain.Notification{}
	err := row.Scan(&n.ID, &n.UserID, &n.Message, &n.OwnerID, &n.IsRead, &n.CreatedAt)
	return n, err
}

func (r *notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, message, owner_id, is_read) VALUES (?, ?, ?, ?)`,
		n.UserID, n.Message, n.OwnerID, n.IsRead,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	n.ID = id
	return nil
}

func (r *notificationRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = ? FOR UPDATE`
	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification by id: %w", err)
	}
	return n, nil
}

// ListByRecipient 查询接收者的通知，可只看未读
func (r *notificationRepo) ListByRecipient(ctx context.Context, userID int64, req domain.NotificationListRequest) ([]*domain.Notification, int64, error) {
	where := `WHERE user_id = ?`
	if req.UnreadOnly {
		where += ` AND is_read = false`
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications `+where, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications ` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, req.PageSize, req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var items []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notifications: %w", err)
	}
	return items, total, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
