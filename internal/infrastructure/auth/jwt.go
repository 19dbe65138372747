// Package auth validates the bearer tokens presented by the chat gateway.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingGateway   = errors.New("missing gateway in claims")
)

// Claims names the gateway relaying user actions. Subject mirrors Gateway.
type Claims struct {
	jwt.RegisteredClaims
	Gateway string `json:"gateway"`
}

// JWTService issues and checks HS256 gateway tokens.
type JWTService struct {
	key    []byte
	issuer string
	parser *jwt.Parser
}

func NewJWTService(cfg config.AuthConfig) *JWTService {
	return &JWTService{
		key:    []byte(cfg.Secret),
		issuer: cfg.Issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithIssuedAt(),
		),
	}
}

// IssueToken signs a token for gateway. With ttl 0 the token carries no
// expiry; operators rotate the secret to revoke it.
func (s *JWTService) IssueToken(gateway string, ttl time.Duration) (string, error) {
	if gateway == "" {
		return "", ErrMissingGateway
	}
	now := jwt.NewNumericDate(time.Now())
	claims := Claims{
		Gateway: gateway,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   gateway,
			IssuedAt:  now,
			NotBefore: now,
		},
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(s.key)
}

// ValidateToken parses raw and returns its claims. Failures collapse onto
// the package errors so callers never see library error types.
func (s *JWTService) ValidateToken(raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	case !token.Valid:
		return nil, ErrInvalidClaims
	case claims.Gateway == "":
		return nil, ErrMissingGateway
	}
	return claims, nil
}
