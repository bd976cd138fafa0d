// Package service 提供业务逻辑层实现。
// 服务层负责协调领域对象和仓储，实现具体的业务用例。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/cache"
	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/mq"
	"github.com/MorseWayne/content_shop/internal/repo"
)

// UserService 定义凭证生命周期相关的用例
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	GetProfile(ctx context.Context, identity *domain.Identity) (*domain.User, error)
	UpdateProfile(ctx context.Context, identity *domain.Identity, req *domain.UpdateProfileRequest) (*domain.User, error)
	ChangePassword(ctx context.Context, identity *domain.Identity, req *domain.ChangePasswordRequest) error
	UpdateProfilePicture(ctx context.Context, identity *domain.Identity, path string) (user *domain.User, previous string, err error)
	Deactivate(ctx context.Context, identity *domain.Identity) error
	// IsActive 认证中间件使用的存活检查，结果短暂缓存
	IsActive(ctx context.Context, userID int64) (bool, error)
}

// UserServiceDeps 用户服务依赖
type UserServiceDeps struct {
	Users       repo.UserRepository
	Hasher      PasswordHasher
	Tokens      TokenService
	Cache       cache.Cache
	Events      mq.Publisher
	LivenessTTL time.Duration
	Logger      *zap.Logger
}

type userService struct {
	users       repo.UserRepository
	hasher      PasswordHasher
	tokens      TokenService
	cache       cache.Cache
	events      mq.Publisher
	livenessTTL time.Duration
	logger      *zap.Logger

	// 用户不存在时也做一次哈希比较，避免通过响应时间枚举用户名
	dummyOnce sync.Once
	dummyHash string
}

// NewUserService 创建用户服务实例
func NewUserService(deps UserServiceDeps) UserService {
	if deps.Cache == nil {
		deps.Cache = cache.NewNullCache()
	}
	if deps.Events == nil {
		deps.Events = mq.NoopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &userService{
		users:       deps.Users,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		cache:       deps.Cache,
		events:      deps.Events,
		livenessTTL: deps.LivenessTTL,
		logger:      deps.Logger,
	}
}

// LivenessCacheKey 存活状态缓存键
func LivenessCacheKey(userID int64) string {
	return fmt.Sprintf("cache:user:active:%d", userID)
}

func normalizeUsername(s string) string { return strings.TrimSpace(s) }
func normalizeEmail(s string) string    { return strings.ToLower(strings.TrimSpace(s)) }

// mapRepoDuplicate 将仓储层唯一键冲突转换为业务错误
func mapRepoDuplicate(err error) error {
	switch {
	case errors.Is(err, repo.ErrDuplicateUsername):
		return ErrDuplicateUsername
	case errors.Is(err, repo.ErrDuplicateEmail):
		return ErrDuplicateEmail
	}
	return err
}

// Register 用户注册
// 预检查只是提示性的，唯一键才是最终保证
func (s *userService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	username := normalizeUsername(req.Username)
	email := normalizeEmail(req.Email)
	if username == "" {
		return nil, validationError("username must not be blank")
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Error("failed to check username", zap.Error(err))
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateUsername
	}

	existing, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to check email", zap.Error(err))
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = domain.DefaultUserRole
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if mapped := mapRepoDuplicate(err); mapped != err {
			return nil, mapped
		}
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered successfully",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
	)
	publishEvent(ctx, s.events, s.logger, mq.EventUserRegistered, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})

	return user, nil
}

// Login 校验凭证并签发访问令牌
// 用户不存在、已停用、密码错误统一返回 ErrInvalidCredentials
func (s *userService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	username := normalizeUsername(req.Username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Error("failed to get user by username", zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}

	// 用户名找不到时尝试按邮箱查找
	if user == nil && strings.Contains(username, "@") {
		user, err = s.users.GetByEmail(ctx, normalizeEmail(username))
		if err != nil {
			s.logger.Error("failed to get user by email", zap.Error(err))
			return nil, fmt.Errorf("get user: %w", err)
		}
	}

	if user == nil {
		s.hasher.Verify(req.Password, s.dummyDigest())
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(req.Password, user.PasswordHash) || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, user.ID, s.tokens.TTL())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user logged in successfully",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
	)

	return &domain.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL() / time.Second),
		User:        user,
	}, nil
}

func (s *userService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("content-shop-dummy-password")
	})
	return s.dummyHash
}

func (s *userService) loadUser(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	if identity == nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		s.logger.Error("failed to get user by id", zap.Int64("id", identity.UserID), zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetProfile 获取当前用户资料
func (s *userService) GetProfile(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	return s.loadUser(ctx, identity)
}

// UpdateProfile 覆盖用户名、邮箱、姓名，角色仅在提供时修改
// 重复性只和其他记录比较
func (s *userService) UpdateProfile(ctx context.Context, identity *domain.Identity, req *domain.UpdateProfileRequest) (*domain.User, error) {
	user, err := s.loadUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	username := normalizeUsername(req.Username)
	email := normalizeEmail(req.Email)
	if username == "" {
		return nil, validationError("username must not be blank")
	}

	if username != user.Username {
		other, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if other != nil && other.ID != user.ID {
			return nil, ErrDuplicateUsername
		}
	}
	if email != user.Email {
		other, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if other != nil && other.ID != user.ID {
			return nil, ErrDuplicateEmail
		}
	}

	user.Username = username
	user.Email = email
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	if req.Role != nil {
		if role := strings.TrimSpace(*req.Role); role != "" {
			user.Role = role
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		if mapped := mapRepoDuplicate(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	user.UpdatedAt = time.Now()

	s.logger.Info("user profile updated", zap.Int64("user_id", user.ID))
	return user, nil
}

// ChangePassword 校验当前密码后替换哈希
func (s *userService) ChangePassword(ctx context.Context, identity *domain.Identity, req *domain.ChangePasswordRequest) error {
	user, err := s.loadUser(ctx, identity)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return ErrIncorrectPassword
	}

	digest, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, digest); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("user password changed", zap.Int64("user_id", user.ID))
	return nil
}

// UpdateProfilePicture 保存头像路径，同时返回被替换的旧路径（没有时为空）供调用方清理文件
func (s *userService) UpdateProfilePicture(ctx context.Context, identity *domain.Identity, path string) (*domain.User, string, error) {
	user, err := s.loadUser(ctx, identity)
	if err != nil {
		return nil, "", err
	}
	var previous string
	if user.ProfilePicture != nil && *user.ProfilePicture != path {
		previous = *user.ProfilePicture
	}
	if err := s.users.UpdateProfilePicture(ctx, user.ID, path); err != nil {
		return nil, "", fmt.Errorf("update profile picture: %w", err)
	}
	user.ProfilePicture = &path
	return user, previous, nil
}

// Deactivate 停用当前账号并清除存活缓存，已签发的令牌随即失效
func (s *userService) Deactivate(ctx context.Context, identity *domain.Identity) error {
	user, err := s.loadUser(ctx, identity)
	if err != nil {
		return err
	}
	if err := s.users.Deactivate(ctx, user.ID); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if err := s.cache.Del(ctx, LivenessCacheKey(user.ID)); err != nil {
		s.logger.Warn("evict liveness cache failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("user deactivated", zap.Int64("user_id", user.ID))
	return nil
}

// IsActive 用户存在且处于激活状态
func (s *userService) IsActive(ctx context.Context, userID int64) (bool, error) {
	key := LivenessCacheKey(userID)

	var active bool
	if err := s.cache.Get(ctx, key, &active); err == nil {
		return active, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	active = user != nil && user.IsActive

	if s.livenessTTL > 0 {
		if err := s.cache.Set(ctx, key, active, s.livenessTTL); err != nil {
			s.logger.Warn("cache liveness failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return active, nil
}
