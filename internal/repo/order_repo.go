package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MorseWayne/content_shop/internal/domain"
)

// OrderRepository 定义订单数据访问接口
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	ListByOwner(ctx context.Context, ownerID int64, page domain.PageRequest) ([]*domain.Order, int64, error)
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id int64) error
	WithTx(tx *sql.Tx) OrderRepository
}

type orderRepo struct {
	db querier
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) WithTx(tx *sql.Tx) OrderRepository {
	return &orderRepo{db: tx}
}

const orderColumns = `id, order_number, product_id, quantity, total_amount, status, shipping_address, shipping_cost, tracking_number, owner_id, order_date, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.ProductID,
		&o.Quantity,
		&o.TotalAmount,
		&o.Status,
		&o.ShippingAddress,
		&o.ShippingCost,
		&o.TrackingNumber,
		&o.OwnerID,
		&o.OrderDate,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

// Create 创建订单
func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (order_number, product_id, quantity, total_amount, status,
			shipping_address, shipping_cost, tracking_number, owner_id, order_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		order.OrderNumber,
		order.ProductID,
		order.Quantity,
		order.TotalAmount,
		order.Status,
		order.ShippingAddress,
		order.ShippingCost,
		order.TrackingNumber,
		order.OwnerID,
		order.OrderDate,
	)
	if err != nil {
		if mapped := mapConstraint(err); mapped != err {
			return fmt.Errorf("create order: %w", mapped)
		}
		return fmt.Errorf("create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	order.ID = id
	return nil
}

func (r *orderRepo) get(ctx context.Context, id int64, lock bool) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return order, nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.get(ctx, id, false)
}

func (r *orderRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.get(ctx, id, true)
}

// ListByOwner 分页查询某用户的订单
func (r *orderRepo) ListByOwner(ctx context.Context, ownerID int64, page domain.PageRequest) ([]*domain.Order, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE owner_id = ?`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE owner_id = ? ORDER BY order_date DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, ownerID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, page.PageSize)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, total, nil
}

// Update 更新状态与物流字段
func (r *orderRepo) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = ?, shipping_address = ?, tracking_number = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		order.Status,
		order.ShippingAddress,
		order.TrackingNumber,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}
