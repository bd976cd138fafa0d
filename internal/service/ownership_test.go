package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/domain"
)

var (
	alice = &domain.Identity{UserID: 1, Username: "alice"}
	bob   = &domain.Identity{UserID: 2, Username: "bob"}
)

func TestCheckOwner(t *testing.T) {
	blog := &domain.Blog{OwnerID: 1}

	assert.NoError(t, CheckOwner(blog, alice))
	assert.ErrorIs(t, CheckOwner(blog, bob), ErrForbidden)
	assert.ErrorIs(t, CheckOwner(blog, nil), ErrForbidden)
}

func TestAssignOwner_OverwritesClientValue(t *testing.T) {
	p := &domain.Product{OwnerID: 99}
	require.NoError(t, AssignOwner(p, alice))
	assert.Equal(t, int64(1), p.OwnerID)

	assert.ErrorIs(t, AssignOwner(p, nil), ErrForbidden)
}

func blogReq(title string) *domain.BlogRequest {
	return &domain.BlogRequest{
		Title:       title,
		Description: "a short description",
		Content:     "body",
		Author:      "alice",
		Tags:        "go,web",
	}
}

func TestBlogService_OwnerOnlyMutations(t *testing.T) {
	blogs := newMockBlogRepository()
	tx := &fakeTx{}
	svc := NewBlogService(blogs, tx, zap.NewNop())
	ctx := context.Background()

	created, err := svc.Create(ctx, alice, blogReq("hello"))
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, created.OwnerID)

	_, err = svc.Update(ctx, bob, created.ID, blogReq("hijacked"))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, bob, created.ID), ErrForbidden)

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Title)

	updated, err := svc.Update(ctx, alice, created.ID, blogReq("hello again"))
	require.NoError(t, err)
	assert.Equal(t, "hello again", updated.Title)
	assert.Equal(t, alice.UserID, updated.OwnerID)

	require.NoError(t, svc.Delete(ctx, alice, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrBlogNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, alice, created.ID), ErrBlogNotFound)
	assert.Equal(t, 5, tx.calls)
}

func TestBlogService_List(t *testing.T) {
	svc := NewBlogService(newMockBlogRepository(), &fakeTx{}, zap.NewNop())
	ctx := context.Background()
	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.Create(ctx, alice, blogReq(title))
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, domain.PageRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	page, err = svc.List(ctx, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPageSize, page.PageSize)
}

func TestProductService_OwnerOnlyMutations(t *testing.T) {
	svc := NewProductService(newMockProductRepository(), &fakeTx{}, zap.NewNop())
	ctx := context.Background()

	req := &domain.ProductRequest{Name: "pencil", Description: "HB", Price: 1.25, Quantity: 10}
	p, err := svc.CreateProduct(ctx, alice, req)
	require.NoError(t, err)
	assert.True(t, p.Available)
	assert.Equal(t, alice.UserID, p.OwnerID)

	_, err = svc.UpdateProduct(ctx, bob, p.ID, req)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, bob, p.ID), ErrForbidden)

	off := false
	req.Available = &off
	updated, err := svc.UpdateProduct(ctx, alice, p.ID, req)
	require.NoError(t, err)
	assert.False(t, updated.Available)

	require.NoError(t, svc.DeleteProduct(ctx, alice, p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
