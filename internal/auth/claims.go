package auth

import (
	"context"
	"fmt"
	"time"

	"posflow/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = 24 * time.Hour

// Claims identifies the customer or staff member a terminal session acts for.
type Claims struct {
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Role      model.Role `json:"role"`
	IsDefault bool       `json:"is_default,omitempty"`
	jwt.RegisteredClaims
}

// Owner converts the claims into an authenticated order owner.
func (c *Claims) Owner() model.Owner {
	return model.Owner{
		ID:            c.OwnerID,
		Name:          c.Name,
		Phone:         c.Phone,
		Role:          c.Role,
		Authenticated: true,
		IsDefault:     c.IsDefault,
	}
}

func GenerateJWT(secret string, o model.Owner, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}

	claims := Claims{
		OwnerID:   o.ID,
		Name:      o.Name,
		Phone:     o.Phone,
		Role:      o.Role,
		IsDefault: o.IsDefault,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   o.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(secret, tokenStr string) (*Claims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.OwnerID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type ctxKey struct{}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}
