package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for admin tokens that fail verification for
// any reason (bad signature, expired, malformed).
var ErrInvalidToken = errors.New("invalid admin token")

// AdminAuth issues and verifies HS256 admin tokens used by the key
// management endpoints. Tokens are minted offline via the CLI; the server
// only verifies.
type AdminAuth struct {
	secret []byte
}

// NewAdminAuth creates an AdminAuth with the given signing secret.
func NewAdminAuth(secret string) *AdminAuth {
	return &AdminAuth{secret: []byte(secret)}
}

type adminClaims struct {
	Subject string `json:"sub_name"`
	jwt.RegisteredClaims
}

// IssueToken creates a signed admin token for the given subject.
func (a *AdminAuth) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := adminClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "chatbot",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// VerifyToken validates an admin token and returns its subject.
func (a *AdminAuth) VerifyToken(tokenStr string) (string, error) {
	claims := &adminClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
