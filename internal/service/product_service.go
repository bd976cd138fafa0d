// Package service 实现业务逻辑层，协调各种资源完成业务需求。
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/repo"
)

// ProductService 定义商品业务逻辑接口
type ProductService interface {
	CreateProduct(ctx context.Context, identity *domain.Identity, req *domain.ProductRequest) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, req *domain.ProductListRequest) (*domain.Page[*domain.Product], error)
	UpdateProduct(ctx context.Context, identity *domain.Identity, id int64, req *domain.ProductRequest) (*domain.Product, error)
	DeleteProduct(ctx context.Context, identity *domain.Identity, id int64) error
}

// productCacheEvicter 由带缓存的商品仓储实现
type productCacheEvicter interface {
	Evict(ctx context.Context, id int64)
}

type productService struct {
	products repo.ProductRepository
	tx       TxRunner
	logger   *zap.Logger
}

// NewProductService 创建商品服务实例
func NewProductService(products repo.ProductRepository, tx TxRunner, logger *zap.Logger) ProductService {
	return &productService{products: products, tx: tx, logger: logger}
}

// CreateProduct 创建商品，未指定 available 时默认上架
func (s *productService) CreateProduct(ctx context.Context, identity *domain.Identity, req *domain.ProductRequest) (*domain.Product, error) {
	product := &domain.Product{Available: true}
	req.Apply(product)
	if err := AssignOwner(product, identity); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now

	s.logger.Info("product created", zap.Int64("product_id", product.ID), zap.Int64("owner_id", product.OwnerID))
	return product, nil
}

// GetProduct 获取商品详情
func (s *productService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListProducts 分页查询商品
func (s *productService) ListProducts(ctx context.Context, req *domain.ProductListRequest) (*domain.Page[*domain.Product], error) {
	req.Normalize()
	products, total, err := s.products.List(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &domain.Page[*domain.Product]{Items: products, Total: total, Page: req.Page, PageSize: req.PageSize}, nil
}

func (s *productService) lockOwned(ctx context.Context, r repo.ProductRepository, identity *domain.Identity, id int64) (*domain.Product, error) {
	product, err := r.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := CheckOwner(product, identity); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct 整体替换可编辑字段
func (s *productService) UpdateProduct(ctx context.Context, identity *domain.Identity, id int64, req *domain.ProductRequest) (*domain.Product, error) {
	var product *domain.Product
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		r := s.products.WithTx(tx)
		p, err := s.lockOwned(ctx, r, identity, id)
		if err != nil {
			return err
		}
		req.Apply(p)
		if err := r.Update(ctx, p); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		p.UpdatedAt = time.Now()
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.evictAfterCommit(ctx, id)
	return product, nil
}

// DeleteProduct 删除商品，已有订单引用的商品不可删除
func (s *productService) DeleteProduct(ctx context.Context, identity *domain.Identity, id int64) error {
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		r := s.products.WithTx(tx)
		if _, err := s.lockOwned(ctx, r, identity, id); err != nil {
			return err
		}
		if err := r.Delete(ctx, id); err != nil {
			if errors.Is(err, repo.ErrRowReferenced) {
				return fmt.Errorf("%w: product %d", ErrProductInUse, id)
			}
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.evictAfterCommit(ctx, id)
	s.logger.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

// evictAfterCommit 事务提交后再清一次缓存，覆盖提交前被并发读回填的旧值
func (s *productService) evictAfterCommit(ctx context.Context, id int64) {
	if e, ok := s.products.(productCacheEvicter); ok {
		e.Evict(ctx, id)
	}
}
