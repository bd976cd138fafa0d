package service

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt 只处理前72字节，更长的密码直接拒绝
const maxPasswordBytes = 72

// PasswordHasher 密码哈希与校验
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Verify 密码不匹配或摘要格式错误都返回 false
	Verify(plain, digest string) bool
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher 创建 bcrypt 哈希器，cost 超出范围时使用默认值
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

// Hash 每次调用生成随机盐
func (h *bcryptHasher) Hash(plain string) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", validationError("password must not exceed %d bytes", maxPasswordBytes)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify 比较过程是时间恒定的
func (h *bcryptHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
