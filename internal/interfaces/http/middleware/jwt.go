package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	claimsKey  = "gateway_claims"
	gatewayKey = "gateway"
)

// TokenValidator validates gateway bearer tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

var errNoBearer = errors.New("missing bearer token")

// GatewayAuth admits only requests carrying a valid gateway token in
// "Authorization: Bearer <jwt>". Requests whose path is listed in public
// pass through unauthenticated.
func GatewayAuth(validator TokenValidator, logger *zap.Logger, public ...string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	open := make(map[string]struct{}, len(public))
	for _, p := range public {
		open[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := open[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		token, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var claims *auth.Claims
			if claims, err = validator.ValidateToken(token); err == nil {
				c.Set(claimsKey, claims)
				c.Set(gatewayKey, claims.Gateway)
				c.Next()
				return
			}
		}

		logger.Warn("Gateway authentication failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		code, message := authFailure(err)
		c.Header("WWW-Authenticate", `Bearer realm="storefront"`)
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
	}
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNoBearer
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errNoBearer
	}
	return token, nil
}

func authFailure(err error) (code, message string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, errNoBearer),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrMissingGateway):
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
	return dto.ErrCodeUnauthorized, "Authentication required"
}

// GatewayClaims returns the claims of the authenticated gateway, or nil
func GatewayClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Value(claimsKey).(*auth.Claims)
	return claims
}

// GetGateway returns the authenticated gateway name, or ""
func GetGateway(c *gin.Context) string {
	return c.GetString(gatewayKey)
}
