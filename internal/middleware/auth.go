package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
)

// ContextKeyClaims is the Gin context key for JWT claims.
const ContextKeyClaims = "claims"

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*service.Claims, error)
}

// RequireRoles validates the bearer token and admits only the given roles.
// With no roles, any authenticated caller is admitted.
func RequireRoles(auth TokenValidator, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := auth.ValidateToken(c.Request.Context(), tokenStr)
		if err != nil {
			if errors.Is(err, service.ErrTokenInvalid) || errors.Is(err, service.ErrTokenRevoked) {
				response.AbortFail(c, http.StatusBadRequest, response.ErrTokenInvalid)
				return
			}
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Token validation failed")
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
			response.AbortFail(c, http.StatusForbidden, response.ErrRoleForbidden)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetPrincipal returns the authenticated caller, or false outside RequireRoles.
func GetPrincipal(c *gin.Context) (model.Principal, bool) {
	claims := GetClaims(c)
	if claims == nil {
		return model.Principal{}, false
	}
	return claims.Principal(), true
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// Fallback for file links opened directly in a browser tab.
	return c.Query("token")
}
