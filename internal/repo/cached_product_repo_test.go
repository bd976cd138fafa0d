package repo

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
)

// countingProductRepo 记录 GetByID 调用次数
type countingProductRepo struct {
	products map[int64]*domain.Product
	gets     int
}

func (r *countingProductRepo) Create(ctx context.Context, p *domain.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *countingProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.gets++
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *countingProductRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *countingProductRepo) Update(ctx context.Context, p *domain.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *countingProductRepo) Delete(ctx context.Context, id int64) error {
	delete(r.products, id)
	return nil
}

func (r *countingProductRepo) List(ctx context.Context, req *domain.ProductListRequest) ([]*domain.Product, int64, error) {
	return nil, 0, nil
}

func (r *countingProductRepo) WithTx(tx *sql.Tx) ProductRepository { return r }

func TestCachedProductRepo_ReadThroughAndEvict(t *testing.T) {
	inner := &countingProductRepo{products: map[int64]*domain.Product{
		1: {ID: 1, Name: "pen", Price: 2.5, OwnerID: 7},
	}}
	r := NewCachedProductRepository(inner, cache.NewMemoryCache(), time.Minute, zap.NewNop())
	ctx := context.Background()

	p, err := r.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "pen", p.Name)

	_, err = r.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.gets, "second read served from cache")

	p.Name = "pencil"
	require.NoError(t, r.Update(ctx, p))

	p, err = r.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "pencil", p.Name)
	assert.Equal(t, 2, inner.gets)

	require.NoError(t, r.Delete(ctx, 1))
	p, err = r.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, p)
}
