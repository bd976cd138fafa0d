package domain

import "time"

// Notification 站内通知：OwnerID 为发送者，UserID 为接收者
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	OwnerID   int64     `json:"owner_id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) GetOwnerID() int64   { return n.OwnerID }
func (n *Notification) SetOwnerID(id int64) { n.OwnerID = id }

// CreateNotificationRequest 发送通知请求
type CreateNotificationRequest struct {
	UserID  int64  `json:"user_id" binding:"required,gt=0"`
	Message string `json:"message" binding:"required,min=3,max=1000"`
}

// NotificationListRequest 通知列表查询
type NotificationListRequest struct {
	PageRequest
	UnreadOnly bool `form:"unread_only" json:"unread_only"`
}
