package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chachabrian/sendit-backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("missing token")
)

// Claims carries the caller identity. Users and admins share one shape.
type Claims struct {
	Kind models.IdentityKind `json:"kind"`
	ID   uint                `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and validates bearer tokens
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service. A zero ttl issues tokens without expiry.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

func (s *TokenService) Issue(identity models.Identity) (string, error) {
	if !identity.Kind.Valid() || identity.ID == 0 {
		return "", fmt.Errorf("cannot issue token for identity %s", identity)
	}

	now := time.Now()
	claims := Claims{
		Kind: identity.Kind,
		ID:   identity.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  identity.String(),
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   "sendit",
		},
	}
	if s.ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) Validate(tokenString string) (models.Identity, error) {
	if tokenString == "" {
		return models.Identity{}, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return models.Identity{}, ErrInvalidToken
	}
	if !claims.Kind.Valid() || claims.ID == 0 {
		return models.Identity{}, fmt.Errorf("%w: malformed identity", ErrInvalidToken)
	}

	return models.Identity{Kind: claims.Kind, ID: claims.ID}, nil
}
