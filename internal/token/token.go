// Package token issues and verifies the bearer credentials used by the
// staff login scheme.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/casamorales/restaurant-backend/internal/apperrors"
)

const (
	TypeUser  = "user"
	TypeStaff = "staff"

	TTL = 24 * time.Hour
)

type Claims struct {
	ID     uint   `json:"id"`
	Type   string `json:"type"`
	RoleID uint   `json:"roleId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func Sign(id uint, typ string, roleID uint, email string, secret []byte) (string, error) {
	claims := Claims{
		ID:     id,
		Type:   typ,
		RoleID: roleID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// Verify checks signature and expiry. Every failure mode collapses into
// the same AuthError so callers cannot distinguish forged from expired.
func Verify(raw string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !t.Valid {
		return nil, apperrors.AuthError("Invalid token")
	}
	return claims, nil
}
