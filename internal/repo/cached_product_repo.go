package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/cache"
	"github.com/MorseWayne/content_shop/internal/domain"
)

// CachedProductRepository 带读穿透缓存的商品仓储
// 只缓存单个商品，列表因参数组合多不缓存
type CachedProductRepository struct {
	repo   ProductRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(repo ProductRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) ProductRepository {
	return &CachedProductRepository{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// ProductCacheKey 单个商品的缓存键
func ProductCacheKey(id int64) string {
	return fmt.Sprintf("product:id:%d", id)
}

func (r *CachedProductRepository) WithTx(tx *sql.Tx) ProductRepository {
	return &CachedProductRepository{
		repo:   r.repo.WithTx(tx),
		cache:  r.cache,
		ttl:    r.ttl,
		logger: r.logger,
	}
}

func (r *CachedProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.repo.Create(ctx, product)
}

// GetByID 根据ID获取商品（带缓存）
func (r *CachedProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := ProductCacheKey(id)

	var product domain.Product
	if err := r.cache.Get(ctx, key, &product); err == nil {
		return &product, nil
	}

	result, err := r.repo.GetByID(ctx, id)
	if err != nil || result == nil {
		return result, err
	}

	if err := r.cache.Set(ctx, key, result, r.ttl); err != nil {
		r.logger.Warn("cache product failed", zap.Int64("product_id", id), zap.Error(err))
	}
	return result, nil
}

// GetByIDForUpdate 加锁读取必须直达数据库
func (r *CachedProductRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return r.repo.GetByIDForUpdate(ctx, id)
}

// Update 更新商品并清除缓存
// 在事务内调用时，提交前的并发读仍可能回填旧值，提交后调用方需再执行 Evict
func (r *CachedProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := r.repo.Update(ctx, product); err != nil {
		return err
	}
	r.evict(ctx, product.ID)
	return nil
}

// Delete 删除商品并清除缓存
func (r *CachedProductRepository) Delete(ctx context.Context, id int64) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

func (r *CachedProductRepository) List(ctx context.Context, req *domain.ProductListRequest) ([]*domain.Product, int64, error) {
	return r.repo.List(ctx, req)
}

// Evict 清除单个商品缓存
func (r *CachedProductRepository) Evict(ctx context.Context, id int64) {
	r.evict(ctx, id)
}

func (r *CachedProductRepository) evict(ctx context.Context, id int64) {
	if err := r.cache.Del(ctx, ProductCacheKey(id)); err != nil {
		r.logger.Warn("evict product cache failed", zap.Int64("product_id", id), zap.Error(err))
	}
}
