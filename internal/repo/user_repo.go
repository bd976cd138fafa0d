// Package repo 提供数据访问层实现，负责与数据库交互。
// 仓储模式（Repository Pattern）将数据访问逻辑与业务逻辑分离，
// 使得业务逻辑不依赖于具体的数据存储实现。
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MorseWayne/content_shop/internal/domain"
)

// UserRepository 定义用户凭证记录的数据访问接口
// 不存在的记录返回 (nil, nil)
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateProfilePicture(ctx context.Context, id int64, path string) error
	Deactivate(ctx context.Context, id int64) error
}

type userRepo struct {
	db querier
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, username, email, first_name, last_name, password_hash, role, is_active, profile_picture, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var picture sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&picture,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if picture.Valid {
		user.ProfilePicture = &picture.String
	}
	return user, nil
}

// Create 创建新用户，密码哈希由服务层负责
// 唯一键冲突映射为 ErrDuplicateUsername / ErrDuplicateEmail
func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, password_hash, role, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Role,
		user.IsActive,
	)
	if err != nil {
		if mapped := mapConstraint(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	user.ID = id
	return nil
}

func (r *userRepo) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetByID 根据ID查询用户
func (r *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := r.getOne(ctx, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByUsername 根据用户名查询用户
func (r *userRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := r.getOne(ctx, "username = ?", username)
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

// GetByEmail 根据邮箱查询用户
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := r.getOne(ctx, "email = ?", email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// Update 更新资料字段（用户名、邮箱、姓名、角色）
func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = ?, email = ?, first_name = ?, last_name = ?, role = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.ID,
	)
	if err != nil {
		if mapped := mapConstraint(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// UpdatePassword 替换密码哈希
func (r *userRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, passwordHash, id); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateProfilePicture 更新头像路径
func (r *userRepo) UpdateProfilePicture(ctx context.Context, id int64, path string) error {
	query := `UPDATE users SET profile_picture = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, path, id); err != nil {
		return fmt.Errorf("update profile picture: %w", err)
	}
	return nil
}

// Deactivate 软删除，设置 is_active 为 false
func (r *userRepo) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE users SET is_active = false, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}
