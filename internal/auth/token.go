package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL はセッショントークンの有効期間。
const SessionTTL = time.Hour

var (
	// ErrTokenExpired はセッショントークンの有効期限切れを表す。
	ErrTokenExpired = errors.New("session token expired")
	// ErrTokenInvalid は署名不正・形式不正などの検証失敗を表す。
	ErrTokenInvalid = errors.New("session token invalid")
)

// SessionClaims はセッショントークンに格納するクレーム。
type SessionClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager はHS256で署名したセッショントークンを発行・検証する。
// 署名鍵は起動時に設定から注入され、以後変更されない。
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    SessionTTL,
		now:    time.Now,
	}
}

// Issue はユーザーIDとメールアドレスを含むセッショントークンを発行する。
func (m *TokenManager) Issue(userID, email string) (string, error) {
	now := m.now()
	claims := SessionClaims{
		ID:    userID,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify はセッショントークンの署名と有効期限を検証し、クレームを返す。
func (m *TokenManager) Verify(tokenString string) (*SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	parsed, err := parser.ParseWithClaims(tokenString, &SessionClaims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
