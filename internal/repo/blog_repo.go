package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MorseWayne/content_shop/internal/domain"
)

// BlogRepository 定义博客数据访问接口
type BlogRepository interface {
	Create(ctx context.Context, blog *domain.Blog) error
	GetByID(ctx context.Context, id int64) (*domain.Blog, error)
	// GetByIDForUpdate 加行锁读取，只在事务中有意义
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Blog, error)
	List(ctx context.Context, page domain.PageRequest) ([]*domain.Blog, int64, error)
	Update(ctx context.Context, blog *domain.Blog) error
	Delete(ctx context.Context, id int64) error
	// WithTx 返回绑定到事务的仓储
	WithTx(tx *sql.Tx) BlogRepository
}

type blogRepo struct {
	db querier
}

// NewBlogRepository 创建博客仓储实例
func NewBlogRepository(db *sql.DB) BlogRepository {
	return &blogRepo{db: db}
}

func (r *blogRepo) WithTx(tx *sql.Tx) BlogRepository {
	return &blogRepo{db: tx}
}

const blogColumns = `id, title, description, content, author, tags, owner_id, created_at, updated_at`

func scanBlog(row rowScanner) (*domain.Blog, error) {
	b := &domain.Blog{}
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Description,
		&b.Content,
		&b.Author,
		&b.Tags,
		&b.OwnerID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

// Create 创建博客
func (r *blogRepo) Create(ctx context.Context, blog *domain.Blog) error {
	query := `
		INSERT INTO blogs (title, description, content, author, tags, owner_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		blog.Title,
		blog.Description,
		blog.Content,
		blog.Author,
		blog.Tags,
		blog.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("create blog: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	blog.ID = id
	return nil
}

func (r *blogRepo) get(ctx context.Context, id int64, lock bool) (*domain.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}

	blog, err := scanBlog(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get blog by id: %w", err)
	}
	return blog, nil
}

// GetByID 根据ID获取博客
func (r *blogRepo) GetByID(ctx context.Context, id int64) (*domain.Blog, error) {
	return r.get(ctx, id, false)
}

func (r *blogRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Blog, error) {
	return r.get(ctx, id, true)
}

// List 按创建时间倒序分页
func (r *blogRepo) List(ctx context.Context, page domain.PageRequest) ([]*domain.Blog, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blogs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}

	query := `SELECT ` + blogColumns + ` FROM blogs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query blogs: %w", err)
	}
	defer rows.Close()

	blogs := make([]*domain.Blog, 0, page.PageSize)
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan blog: %w", err)
		}
		blogs = append(blogs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate blogs: %w", err)
	}

	return blogs, total, nil
}

// Update 整体替换可编辑字段，owner_id 不可修改
func (r *blogRepo) Update(ctx context.Context, blog *domain.Blog) error {
	query := `
		UPDATE blogs
		SET title = ?, description = ?, content = ?, author = ?, tags = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		blog.Title,
		blog.Description,
		blog.Content,
		blog.Author,
		blog.Tags,
		blog.ID,
	)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	return nil
}

// Delete 物理删除博客
func (r *blogRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	return nil
}
