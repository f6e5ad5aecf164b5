package utils

import (
	"time"

	"vidtube/internal/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "vidtube"
	accessTokenT  = "access"
	refreshTokenT = "refresh"
)

// Claims 自定义JWT Claims
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateToken 生成 access token
func GenerateToken(userID, username string) (string, *time.Time, error) {
	cfg := config.GlobalConfig.JWT
	expireTime := time.Now().Add(time.Duration(cfg.Expire) * time.Hour)
	token, err := sign(Claims{
		UserID:    userID,
		Username:  username,
		TokenType: accessTokenT,
	}, expireTime, cfg.Secret)
	if err != nil {
		return "", nil, err
	}
	return token, &expireTime, nil
}

// GenerateRefreshToken 生成 refresh token
func GenerateRefreshToken(userID string) (string, *time.Time, error) {
	cfg := config.GlobalConfig.JWT
	expireTime := time.Now().Add(time.Duration(cfg.RefreshExpire) * time.Hour)
	token, err := sign(Claims{
		UserID:    userID,
		TokenType: refreshTokenT,
	}, expireTime, cfg.RefreshSecret)
	if err != nil {
		return "", nil, err
	}
	return token, &expireTime, nil
}

func sign(claims Claims, expireTime time.Time, secret string) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expireTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    tokenIssuer,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken 验证 access token
func ParseToken(tokenString string) (*Claims, error) {
	return parse(tokenString, config.GlobalConfig.JWT.Secret, accessTokenT)
}

// ParseRefreshToken 验证 refresh token
func ParseRefreshToken(tokenString string) (*Claims, error) {
	return parse(tokenString, config.GlobalConfig.JWT.RefreshSecret, refreshTokenT)
}

func parse(tokenString, secret, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.TokenType == tokenType {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}
