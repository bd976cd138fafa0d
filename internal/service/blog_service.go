package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/repo"
)

// BlogService 博客用例：读取公开，修改只允许作者本人
type BlogService interface {
	Create(ctx context.Context, identity *domain.Identity, req *domain.BlogRequest) (*domain.Blog, error)
	Get(ctx context.Context, id int64) (*domain.Blog, error)
	List(ctx context.Context, page domain.PageRequest) (*domain.Page[*domain.Blog], error)
	Update(ctx context.Context, identity *domain.Identity, id int64, req *domain.BlogRequest) (*domain.Blog, error)
	Delete(ctx context.Context, identity *domain.Identity, id int64) error
}

type blogService struct {
	blogs  repo.BlogRepository
	tx     TxRunner
	logger *zap.Logger
}

// NewBlogService 创建博客服务实例
func NewBlogService(blogs repo.BlogRepository, tx TxRunner, logger *zap.Logger) BlogService {
	return &blogService{blogs: blogs, tx: tx, logger: logger}
}

func (s *blogService) Create(ctx context.Context, identity *domain.Identity, req *domain.BlogRequest) (*domain.Blog, error) {
	blog := &domain.Blog{}
	req.Apply(blog)
	if err := AssignOwner(blog, identity); err != nil {
		return nil, err
	}

	if err := s.blogs.Create(ctx, blog); err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}
	now := time.Now()
	blog.CreatedAt, blog.UpdatedAt = now, now

	s.logger.Info("blog created", zap.Int64("blog_id", blog.ID), zap.Int64("owner_id", blog.OwnerID))
	return blog, nil
}

func (s *blogService) Get(ctx context.Context, id int64) (*domain.Blog, error) {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get blog: %w", err)
	}
	if blog == nil {
		return nil, ErrBlogNotFound
	}
	return blog, nil
}

func (s *blogService) List(ctx context.Context, page domain.PageRequest) (*domain.Page[*domain.Blog], error) {
	page.Normalize()
	blogs, total, err := s.blogs.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return &domain.Page[*domain.Blog]{Items: blogs, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

// lockOwned 在事务内加锁读取并校验归属
func (s *blogService) lockOwned(ctx context.Context, r repo.BlogRepository, identity *domain.Identity, id int64) (*domain.Blog, error) {
	blog, err := r.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get blog: %w", err)
	}
	if blog == nil {
		return nil, ErrBlogNotFound
	}
	if err := CheckOwner(blog, identity); err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *blogService) Update(ctx context.Context, identity *domain.Identity, id int64, req *domain.BlogRequest) (*domain.Blog, error) {
	var blog *domain.Blog
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		r := s.blogs.WithTx(tx)
		b, err := s.lockOwned(ctx, r, identity, id)
		if err != nil {
			return err
		}
		req.Apply(b)
		if err := r.Update(ctx, b); err != nil {
			return fmt.Errorf("update blog: %w", err)
		}
		b.UpdatedAt = time.Now()
		blog = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blog, nil
}

func (s *blogService) Delete(ctx context.Context, identity *domain.Identity, id int64) error {
	return s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		r := s.blogs.WithTx(tx)
		if _, err := s.lockOwned(ctx, r, identity, id); err != nil {
			return err
		}
		if err := r.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete blog: %w", err)
		}
		s.logger.Info("blog deleted", zap.Int64("blog_id", id))
		return nil
	})
}
