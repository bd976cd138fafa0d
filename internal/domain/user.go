// Package domain 定义业务领域模型和核心业务规则。
// 领域模型是业务逻辑的核心，独立于外部依赖（数据库、HTTP等）。
package domain

import (
	"time"
)

// DefaultUserRole 注册时未指定角色使用的默认值
// 角色只是一个标签，不参与任何授权判断
const DefaultUserRole = "user"

// User 表示用户凭证记录
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	PasswordHash   string    `json:"-"` // JSON序列化时忽略密码哈希
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	ProfilePicture *string   `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Identity 返回该用户对应的身份
func (u *User) Identity() *Identity {
	return &Identity{UserID: u.ID, Username: u.Username}
}

// RegisterRequest 表示用户注册请求
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=32"`
	Email     string `json:"email" binding:"required,email,max=254"`
	FirstName string `json:"first_name" binding:"max=64"`
	LastName  string `json:"last_name" binding:"max=64"`
	Password  string `json:"password" binding:"required,min=6,max=72"`
	Role      string `json:"role" binding:"max=32"`
}

// LoginRequest 表示用户登录请求
// 同时支持 JSON 与 OAuth2 password 表单
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResponse 表示登录成功的响应
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // 秒
	User        *User  `json:"user,omitempty"`
}

// UpdateProfileRequest 表示资料更新请求
// Role 为空时保持原值
type UpdateProfileRequest struct {
	Username  string  `json:"username" binding:"required,min=3,max=32"`
	Email     string  `json:"email" binding:"required,email,max=254"`
	FirstName string  `json:"first_name" binding:"max=64"`
	LastName  string  `json:"last_name" binding:"max=64"`
	Role      *string `json:"role" binding:"omitempty,min=1,max=32"`
}

// ChangePasswordRequest 表示修改密码请求
type ChangePasswordRequest struct {
	Password    string `json:"password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}
