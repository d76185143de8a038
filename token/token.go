// Package token issues and verifies the signed bearer tokens that carry
// an account's identity and role claim.
package token

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// TTL is how long an issued token stays valid.
const TTL = 30 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the verified content of a bearer token.
type Claims struct {
	UserID string
	Role   string
}

// Issue signs a token for the given user id and role.
func Issue(secret, userID, role string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(TTL).Unix(),
	})
	return t.SignedString([]byte(secret))
}

// Verify parses and checks the signature and expiry of a token string.
// Any failure (malformed, expired, wrong signature, missing claims) is
// reported as ErrInvalidToken.
func Verify(secret, tokenString string) (*Claims, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		return nil, ErrInvalidToken
	}
	return &Claims{UserID: sub, Role: role}, nil
}
