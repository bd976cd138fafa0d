package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MorseWayne/content_shop/internal/domain"
)

// ProductRepository 定义商品数据访问接口
type ProductRepository interface {
	// 基本CRUD操作
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error

	// 查询操作
	List(ctx context.Context, req *domain.ProductListRequest) ([]*domain.Product, int64, error)

	WithTx(tx *sql.Tx) ProductRepository
}

// productRepo 实现ProductRepository接口
type productRepo struct {
	db querier
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) WithTx(tx *sql.Tx) ProductRepository {
	return &productRepo{db: tx}
}

const productColumns = `id, name, description, price, quantity, available, image_url, owner_id, created_at, updated_at`

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Quantity,
		&p.Available,
		&p.ImageURL,
		&p.OwnerID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

// Create 创建商品
func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, description, price, quantity, available, image_url, owner_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		product.Name,
		product.Description,
		product.Price,
		product.Quantity,
		product.Available,
		product.ImageURL,
		product.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	product.ID = id
	return nil
}

func (r *productRepo) get(ctx context.Context, id int64, lock bool) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}
	return product, nil
}

// GetByID 根据ID获取商品
func (r *productRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.get(ctx, id, false)
}

func (r *productRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return r.get(ctx, id, true)
}

// Update 更新商品
func (r *productRepo) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, quantity = ?, available = ?, image_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		product.Name,
		product.Description,
		product.Price,
		product.Quantity,
		product.Available,
		product.ImageURL,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// Delete 删除商品
func (r *productRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", mapConstraint(err))
	}
	return nil
}

// List 获取商品列表
func (r *productRepo) List(ctx context.Context, req *domain.ProductListRequest) ([]*domain.Product, int64, error) {
	where, args := buildProductWhereClause(req)

	countQuery := "SELECT COUNT(*) FROM products " + where
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		productColumns, where)
	args = append(args, req.PageSize, req.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0, req.PageSize)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, total, nil
}

// likeEscaper 转义 LIKE 通配符，MySQL 默认转义符为反斜杠
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildProductWhereClause 构建查询条件子句
func buildProductWhereClause(req *domain.ProductListRequest) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if req.OwnerID != nil {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, *req.OwnerID)
	}

	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		conditions = append(conditions, "(name LIKE ? OR description LIKE ?)")
		like := "%" + likeEscaper.Replace(kw) + "%"
		args = append(args, like, like)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
