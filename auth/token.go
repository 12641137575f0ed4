package auth

import (
	"civic-stream/domain"
	"civic-stream/errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "civic-stream"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and validates HS256 tokens with a secret loaded from configuration.
// Issuance belongs to the upstream authentication service; GenerateToken exists for
// tooling and tests.
type Tokens struct {
	key []byte
}

func NewTokens(secret string) Tokens {
	return Tokens{key: []byte(secret)}
}

// GenerateToken creates a signed JWT for a specific user.
func (t Tokens) GenerateToken(subject domain.Subject, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: subject.ID,
		Role:   string(subject.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// ValidateToken parses and validates the signature and expiration of a JWT string.
func (t Tokens) ValidateToken(tokenString string) (domain.Subject, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.key, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return domain.Subject{}, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return domain.Subject{}, errors.ErrInvalidToken
	}
	role := domain.Role(claims.Role)
	if role == "" {
		role = domain.RoleCitizen
	}
	return domain.Subject{ID: claims.UserID, Role: role}, nil
}
