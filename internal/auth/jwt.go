package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "aetherlink"

var (
	// ErrInvalidToken токен не прошёл проверку подписи, срока или формата
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrWeakSecret секрет короче 32 байт
	ErrWeakSecret = errors.New("auth: secret key must be at least 32 bytes")
)

// Claims утверждения токена путника.
// Operator разрешает действовать от имени любого путника (игровой клиент, бот).
type Claims struct {
	TravelerID string `json:"traveler_id"`
	Operator   bool   `json:"operator,omitempty"`
	jwt.RegisteredClaims
}

// MayActFor сообщает, может ли владелец токена выполнять шаги за travelerID
func (c *Claims) MayActFor(travelerID string) bool {
	return c.Operator || c.TravelerID == travelerID
}

// TokenIssuer выпускает и проверяет HS256 токены
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer создаёт издателя токенов. ttl <= 0 означает 24 часа.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue создаёт токен для путника
func (ti *TokenIssuer) Issue(travelerID string, operator bool) (string, error) {
	if travelerID == "" {
		return "", fmt.Errorf("auth: empty traveler id")
	}
	now := ti.now()
	claims := &Claims{
		TravelerID: travelerID,
		Operator:   operator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   travelerID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Validate проверяет токен и возвращает его утверждения
func (ti *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(ti.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TravelerID == "" {
		return nil, fmt.Errorf("%w: no traveler id", ErrInvalidToken)
	}
	return claims, nil
}

// GenerateSecureSecret генерирует новый секрет в base64
func GenerateSecureSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// ParseSecret декодирует секрет из base64 (формат auth.jwt_secret в конфиге).
// Пустая строка даёт случайный секрет: токены не переживут перезапуск.
func ParseSecret(secret string) ([]byte, error) {
	if secret == "" {
		return base64.StdEncoding.DecodeString(GenerateSecureSecret())
	}
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("auth: decode secret: %w", err)
	}
	if len(decoded) < 32 {
		return nil, ErrWeakSecret
	}
	return decoded, nil
}
