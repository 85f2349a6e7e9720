package mockserver

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SuperTokenManager 负责超管令牌的签发与验证（HS256）。
// 客户端把令牌当作不透明字符串原样转发，签名细节只存在于服务端。
type SuperTokenManager struct {
	secretKey []byte
	tokenDur  time.Duration
}

// superClaims 是超管令牌中携带的声明。
type superClaims struct {
	Username string `json:"username"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

// NewSuperTokenManager 创建一个令牌管理器。
func NewSuperTokenManager(secret string, expireHours int) *SuperTokenManager {
	return &SuperTokenManager{
		secretKey: []byte(secret),
		tokenDur:  time.Duration(expireHours) * time.Hour,
	}
}

// Generate 为指定超管用户签发一枚令牌。
func (m *SuperTokenManager) Generate(username string) (string, error) {
	claims := superClaims{
		Username: username,
		Scope:    "super_admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDur)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify 验证令牌，有效时返回用户名。
func (m *SuperTokenManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &superClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*superClaims)
	if !ok || !token.Valid || claims.Scope != "super_admin" {
		return "", errors.New("invalid token")
	}
	return claims.Username, nil
}
