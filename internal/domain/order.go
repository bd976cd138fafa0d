package domain

import "time"

// OrderStatus 订单状态，支付不在系统范围内，订单只流转状态字段
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsFinal 终态订单不允许再修改
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Order 表示订单
type Order struct {
	ID              int64       `json:"id"`
	OrderNumber     string      `json:"order_number"`
	ProductID       int64       `json:"product_id"`
	Quantity        int         `json:"quantity"`
	TotalAmount     float64     `json:"total_amount"`
	Status          OrderStatus `json:"status"`
	ShippingAddress string      `json:"shipping_address"`
	ShippingCost    float64     `json:"shipping_cost"`
	TrackingNumber  string      `json:"tracking_number"`
	OwnerID         int64       `json:"owner_id"`
	OrderDate       time.Time   `json:"order_date"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (o *Order) GetOwnerID() int64   { return o.OwnerID }
func (o *Order) SetOwnerID(id int64) { o.OwnerID = id }

// CreateOrderRequest 下单请求，金额由服务端根据商品价格计算
type CreateOrderRequest struct {
	ProductID       int64   `json:"product_id" binding:"required,gt=0"`
	Quantity        int     `json:"quantity" binding:"required,gt=0"`
	ShippingAddress string  `json:"shipping_address" binding:"required,min=3,max=512"`
	ShippingCost    float64 `json:"shipping_cost" binding:"gte=0"`
}

// UpdateOrderRequest 订单更新请求，未提供的字段保持不变
type UpdateOrderRequest struct {
	Status          *OrderStatus `json:"status" binding:"omitempty,oneof=pending processing shipped delivered cancelled"`
	ShippingAddress *string      `json:"shipping_address" binding:"omitempty,min=3,max=512"`
	TrackingNumber  *string      `json:"tracking_number" binding:"omitempty,max=64"`
}
