package middleware

import (
	"strings"

	"tapearn/internal/domain"
	"tapearn/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxAdmin  = "admin"
)

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// JWT requires a player token and stores its user id under "user_id".
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortError(c, domain.ErrUnauthorized)
			return
		}
		userID, err := service.ParseJWT(token)
		if err != nil {
			AbortError(c, domain.ErrInvalidToken)
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

// UserID returns the id set by JWT.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// AdminJWT requires an admin token. Player tokens fail on audience. The role
// is taken from roster rather than the token, so removals and demotions apply
// to tokens already issued.
func AdminJWT(roster domain.AdminRoster) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortError(c, domain.ErrUnauthorized)
			return
		}
		claims, err := service.ParseAdminJWT(token)
		if err != nil {
			AbortError(c, domain.ErrInvalidToken)
			return
		}
		role, ok := roster.Role(claims.AdminID)
		if !ok {
			AbortError(c, domain.ErrForbidden)
			return
		}
		claims.Role = role
		c.Set(ctxAdmin, claims)
		c.Next()
	}
}

// Admin returns the claims set by AdminJWT.
func Admin(c *gin.Context) (*service.AdminClaims, bool) {
	v, ok := c.Get(ctxAdmin)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*service.AdminClaims)
	return claims, ok
}

// RequirePermission must run after AdminJWT.
func RequirePermission(perm domain.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Admin(c)
		if !ok {
			AbortError(c, domain.ErrUnauthorized)
			return
		}
		if !claims.Role.Can(perm) {
			AbortError(c, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}
