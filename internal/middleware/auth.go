package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/internal/policy"
	"github.com/suteetoe/jobboard/pkg/jwtutil"
	"github.com/suteetoe/jobboard/pkg/logger"
	"go.uber.org/zap"
)

const principalKey = "principal"

// TokenValidator parses bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString, tokenType string) (*jwtutil.UserClaims, error)
}

// PrincipalResolver loads the principal for a token's user id.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID uint) (policy.Principal, error)
}

// Authenticate resolves an optional Bearer token into a policy.Principal.
// Requests without an Authorization header continue as anonymous; operations
// decide whether that is allowed. A header that is present but invalid is rejected.
func Authenticate(validator TokenValidator, resolver PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				c.Set(principalKey, policy.Anonymous)
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
				log.Warn("Invalid authorization header format")
				return apperrors.Unauthorized("Authorization header must contain two space-delimited values")
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]), jwtutil.AccessToken)
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return apperrors.Unauthorized("Given token not valid for any token type")
			}

			p, err := resolver.ResolvePrincipal(c.Request().Context(), claims.UserID)
			if err != nil {
				log.Warn("Token user could not be resolved", zap.Uint("user_id", claims.UserID), zap.Error(err))
				return err
			}

			c.Set(principalKey, p)
			c.Set("user_id", p.ID)
			log.Debug("JWT token validated successfully",
				zap.Uint("user_id", p.ID),
				zap.String("role", string(p.Role)))

			return next(c)
		}
	}
}

// PrincipalFrom returns the principal stored by Authenticate, or Anonymous.
func PrincipalFrom(c echo.Context) policy.Principal {
	if p, ok := c.Get(principalKey).(policy.Principal); ok {
		return p
	}
	return policy.Anonymous
}
