package service

import (
	"errors"
	"fmt"
)

// 业务错误，调用方用 errors.Is 判断
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token expired")
	ErrForbidden            = errors.New("forbidden")
	ErrUserNotFound         = errors.New("user not found")
	ErrBlogNotFound         = errors.New("blog not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrDuplicateUsername    = errors.New("username already registered")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrIncorrectPassword    = errors.New("incorrect password")
	ErrValidation           = errors.New("validation failed")
	ErrProductInUse         = errors.New("product is referenced by orders")
)

// validationError 包装 ErrValidation 并附带原因
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
