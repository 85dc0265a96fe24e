// Package service 提供目录浏览、联系链接与管理端令牌等业务服务。
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/MorseWayne/shoe_catalog/internal/config"
)

// JWT相关错误定义
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenNotReady = errors.New("token used before valid")
	ErrMissingSecret = errors.New("jwt secret is not configured")
)

// RoleAdmin 管理端令牌角色
const RoleAdmin = "admin"

// Claims 管理端令牌载荷
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService 管理端令牌的签发与校验
type JWTService interface {
	GenerateAdminToken(subject string) (string, time.Time, error)
	ValidateAdminToken(tokenString string) (*Claims, error)
}

type jwtService struct {
	config config.JWTConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewJWTService 创建JWT服务实例
func NewJWTService(cfg config.JWTConfig, logger *zap.Logger) JWTService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &jwtService{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// GenerateAdminToken 为 subject 签发管理端访问令牌，返回令牌与过期时间
func (s *jwtService) GenerateAdminToken(subject string) (string, time.Time, error) {
	if s.config.Secret == "" {
		return "", time.Time{}, ErrMissingSecret
	}

	now := s.now()
	expiresAt := now.Add(s.config.AccessTokenTTL)
	claims := &Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		s.logger.Error("failed to sign admin token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("sign admin token: %w", err)
	}

	s.logger.Info("admin token generated",
		zap.String("subject", subject),
		zap.Duration("ttl", s.config.AccessTokenTTL),
	)
	return signed, expiresAt, nil
}

// ValidateAdminToken 校验签名、有效期、签发者与角色
func (s *jwtService) ValidateAdminToken(tokenString string) (*Claims, error) {
	if s.config.Secret == "" {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotReady
		}
		s.logger.Warn("token validation failed", zap.Error(err))
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Issuer != s.config.Issuer {
		s.logger.Warn("token issuer mismatch",
			zap.String("expected", s.config.Issuer),
			zap.String("actual", claims.Issuer),
		)
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleAdmin {
		s.logger.Warn("token role mismatch", zap.String("role", claims.Role))
		return nil, ErrInvalidToken
	}

	return claims, nil
}
