package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cartera/internal/core/apperror"
	"cartera/internal/core/appctx"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// TokenService issues and verifies HMAC-signed access tokens.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService creates a token service.
func NewTokenService(secret string, issuer string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TokenService{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// Issue signs an access token for the user.
func (t *TokenService) Issue(u *User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email: u.Email,
		Name:  u.Name,
		Roles: u.Roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the embedded actor.
func (t *TokenService) Verify(tokenString string) (*appctx.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired token")
	}
	if !token.Valid {
		return nil, apperror.NewUnauthorized("invalid token")
	}

	return &appctx.Actor{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Roles:  claims.Roles,
	}, nil
}
