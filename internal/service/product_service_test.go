package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/cache"
	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/repo"
)

// stagedProductRepository 写操作在 commit 前对读不可见，模拟 InnoDB 的读已提交
type stagedProductRepository struct {
	*mockProductRepository
	pending map[int64]*domain.Product // nil 值表示待删除
}

func newStagedProductRepository() *stagedProductRepository {
	return &stagedProductRepository{
		mockProductRepository: newMockProductRepository(),
		pending:               make(map[int64]*domain.Product),
	}
}

func (s *stagedProductRepository) Update(ctx context.Context, p *domain.Product) error {
	cp := *p
	s.pending[p.ID] = &cp
	return nil
}

func (s *stagedProductRepository) Delete(ctx context.Context, id int64) error {
	s.pending[id] = nil
	return nil
}

func (s *stagedProductRepository) WithTx(tx *sql.Tx) repo.ProductRepository { return s }

func (s *stagedProductRepository) commit() {
	for id, p := range s.pending {
		if p == nil {
			delete(s.products, id)
		} else {
			s.products[id] = p
		}
	}
	s.pending = make(map[int64]*domain.Product)
}

// commitHookTx 回调成功后先执行 beforeCommit，再提交
type commitHookTx struct {
	beforeCommit func()
	commit       func()
}

func (c *commitHookTx) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	if c.beforeCommit != nil {
		c.beforeCommit()
	}
	c.commit()
	return nil
}

func TestProductService_NoStaleCacheAfterCommit(t *testing.T) {
	ctx := context.Background()
	inner := newStagedProductRepository()
	cached := repo.NewCachedProductRepository(inner, cache.NewMemoryCache(), time.Minute, zap.NewNop())

	p := &domain.Product{Name: "old", Price: 1, Quantity: 1, Available: true, OwnerID: alice.UserID}
	require.NoError(t, inner.Create(ctx, p))

	tx := &commitHookTx{commit: inner.commit}
	svc := NewProductService(cached, tx, zap.NewNop())

	// 提交前的并发读会把已提交的旧值写回缓存
	var seen []string
	tx.beforeCommit = func() {
		got, err := svc.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		seen = append(seen, got.Name)
	}

	_, err := svc.UpdateProduct(ctx, alice, p.ID, &domain.ProductRequest{Name: "new", Price: 1, Quantity: 1})
	require.NoError(t, err)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)

	require.NoError(t, svc.DeleteProduct(ctx, alice, p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, []string{"old", "new"}, seen)
}

// referencedProductRepository Delete 总是返回外键引用错误
type referencedProductRepository struct {
	*mockProductRepository
}

func (r *referencedProductRepository) Delete(ctx context.Context, id int64) error {
	return repo.ErrRowReferenced
}

func (r *referencedProductRepository) WithTx(tx *sql.Tx) repo.ProductRepository { return r }

func TestProductService_DeleteReferencedProduct(t *testing.T) {
	ctx := context.Background()
	products := &referencedProductRepository{newMockProductRepository()}
	svc := NewProductService(products, &fakeTx{}, zap.NewNop())

	p, err := svc.CreateProduct(ctx, alice, &domain.ProductRequest{Name: "pen", Price: 1, Quantity: 1})
	require.NoError(t, err)

	err = svc.DeleteProduct(ctx, alice, p.ID)
	assert.ErrorIs(t, err, ErrProductInUse)

	_, err = svc.GetProduct(ctx, p.ID)
	assert.NoError(t, err)
}
