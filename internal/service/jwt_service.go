package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/config"
	"github.com/MorseWayne/content_shop/internal/domain"
)

// JWTConfig 令牌签名配置，构造时注入，之后只读
type JWTConfig struct {
	Secret         string
	Algorithm      string
	AccessTokenTTL time.Duration
	Issuer         string
}

// JWTConfigFrom 从应用配置转换
func JWTConfigFrom(cfg config.JWTConfig) JWTConfig {
	return JWTConfig{
		Secret:         cfg.Secret,
		Algorithm:      cfg.Algorithm,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Issuer:         cfg.Issuer,
	}
}

// Claims JWT载荷：sub 为用户名，id 为用户ID
// 字段名避开 RegisteredClaims.ID（对应 jti）
type Claims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// TokenService 签发与校验访问令牌
type TokenService interface {
	// Issue ttl <= 0 时使用配置的默认有效期
	Issue(username string, userID int64, ttl time.Duration) (string, error)
	// Validate 过期返回 ErrTokenExpired，其余失败一律 ErrInvalidToken
	Validate(token string) (*domain.Identity, error)
	// TTL 默认访问令牌有效期
	TTL() time.Duration
}

// TokenOption 定制令牌服务（主要用于测试）
type TokenOption func(*jwtService)

// WithClock 注入时钟
func WithClock(now func() time.Time) TokenOption {
	return func(s *jwtService) { s.now = now }
}

type jwtService struct {
	cfg    JWTConfig
	method jwt.SigningMethod
	now    func() time.Time
	logger *zap.Logger
}

// NewTokenService 创建令牌服务，只接受 HMAC 系列算法
func NewTokenService(cfg JWTConfig, logger *zap.Logger, opts ...TokenOption) (TokenService, error) {
	var method jwt.SigningMethod
	switch strings.ToUpper(cfg.Algorithm) {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm: %q", cfg.Algorithm)
	}
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 30 * time.Minute
	}

	s := &jwtService{
		cfg:    cfg,
		method: method,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *jwtService) TTL() time.Duration {
	return s.cfg.AccessTokenTTL
}

// Issue 签发访问令牌
func (s *jwtService) Issue(username string, userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.cfg.AccessTokenTTL
	}
	now := s.now()

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		s.logger.Error("failed to sign access token", zap.Error(err))
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Validate 校验签名、算法、过期时间与必需声明
func (s *jwtService) Validate(tokenString string) (*domain.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		s.logger.Debug("token validation failed", zap.Error(err))
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}

	return &domain.Identity{UserID: claims.UserID, Username: claims.Subject}, nil
}
