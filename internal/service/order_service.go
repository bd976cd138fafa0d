package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/mq"
	"github.com/MorseWayne/content_shop/internal/repo"
)

// OrderService 订单用例，所有操作只针对调用者自己的订单
type OrderService interface {
	Create(ctx context.Context, identity *domain.Identity, req *domain.CreateOrderRequest) (*domain.Order, error)
	Get(ctx context.Context, identity *domain.Identity, id int64) (*domain.Order, error)
	List(ctx context.Context, identity *domain.Identity, page domain.PageRequest) (*domain.Page[*domain.Order], error)
	Update(ctx context.Context, identity *domain.Identity, id int64, req *domain.UpdateOrderRequest) (*domain.Order, error)
	Delete(ctx context.Context, identity *domain.Identity, id int64) error
}

type orderService struct {
	orders   repo.OrderRepository
	products repo.ProductRepository
	tx       TxRunner
	events   mq.Publisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrderService 创建订单服务实例
func NewOrderService(orders repo.OrderRepository, products repo.ProductRepository, tx TxRunner, events mq.Publisher, logger *zap.Logger) OrderService {
	if events == nil {
		events = mq.NoopPublisher{}
	}
	return &orderService{
		orders:   orders,
		products: products,
		tx:       tx,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// roundCents 金额保留两位小数
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return "ORD" + now.Format("20060102") + suffix
}

// Create 下单：金额 = 单价 * 数量 + 运费，由服务端计算
func (s *orderService) Create(ctx context.Context, identity *domain.Identity, req *domain.CreateOrderRequest) (*domain.Order, error) {
	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsOrderable(req.Quantity) {
		return nil, validationError("product %d is unavailable or has insufficient quantity", product.ID)
	}

	now := s.now()
	order := &domain.Order{
		OrderNumber:     newOrderNumber(now),
		ProductID:       product.ID,
		Quantity:        req.Quantity,
		TotalAmount:     roundCents(product.Price*float64(req.Quantity) + req.ShippingCost),
		Status:          domain.OrderStatusPending,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		ShippingCost:    roundCents(req.ShippingCost),
		OrderDate:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := AssignOwner(order, identity); err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// 商品在读取之后被删除
		if errors.Is(err, repo.ErrMissingReference) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("owner_id", order.OwnerID),
	)
	publishEvent(ctx, s.events, s.logger, mq.EventOrderCreated, order)
	return order, nil
}

func (s *orderService) Get(ctx context.Context, identity *domain.Identity, id int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := CheckOwner(order, identity); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, identity *domain.Identity, page domain.PageRequest) (*domain.Page[*domain.Order], error) {
	if identity == nil {
		return nil, ErrForbidden
	}
	page.Normalize()
	orders, total, err := s.orders.ListByOwner(ctx, identity.UserID, page)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &domain.Page[*domain.Order]{Items: orders, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

func (s *orderService) lockOwned(ctx context.Context, r repo.OrderRepository, identity *domain.Identity, id int64) (*domain.Order, error) {
	order, err := r.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := CheckOwner(order, identity); err != nil {
		return nil, err
	}
	return order, nil
}

// Update 修改状态与物流信息，已完成或已取消的订单不可再改
func (s *orderService) Update(ctx context.Context, identity *domain.Identity, id int64, req *domain.UpdateOrderRequest) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		r := s.orders.WithTx(tx)
		o, err := s.lockOwned(ctx, r, identity, id)
		if err != nil {
			return err
		}
		if o.Status.IsFinal() {
			return validationError("order is already %s", o.Status)
		}

		if req.Status != nil {
			o.Status = *req.Status
		}
		if req.ShippingAddress != nil {
			o.ShippingAddress = strings.TrimSpace(*req.ShippingAddress)
		}
		if req.TrackingNumber != nil {
			o.TrackingNumber = strings.TrimSpace(*req.TrackingNumber)
		}

		if err := r.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		o.UpdatedAt = s.now()
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.events, s.logger, mq.EventOrderUpdated, order)
	return order, nil
}

func (s *orderService) Delete(ctx context.Context, identity *domain.Identity, id int64) error {
	return s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		r := s.orders.WithTx(tx)
		if _, err := s.lockOwned(ctx, r, identity, id); err != nil {
			return err
		}
		if err := r.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		s.logger.Info("order deleted", zap.Int64("order_id", id))
		return nil
	})
}
