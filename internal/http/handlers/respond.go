package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"tapearn/internal/domain"
	"tapearn/internal/http/middleware"
	"tapearn/internal/logger"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error":{"code","message"}}. Anything that is
// not a *domain.Error is logged and served as a bare internal error.
func respondError(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		c.JSON(middleware.StatusFor(de.Code), middleware.ErrorBody(de.Code, de.Message))
		return
	}
	logger.WithContext(c.Request.Context()).Error("request failed",
		"method", c.Request.Method, "route", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, middleware.ErrorBody(domain.CodeInternal, domain.ErrInternal.Message))
}

func badRequest(c *gin.Context, msg string) {
	respondError(c, domain.NewError(domain.CodeValidation, msg))
}

// bindJSON binds the body and answers a validation error when it is malformed.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty.
func bindOptionalJSON(c *gin.Context, v any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

// pathID parses a positive int64 path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, domain.ErrInvalidAccountID)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

var errNotYourAccount = domain.NewError(domain.CodeForbidden, "token does not belong to this account")

// owner resolves the account a player request acts on. id 0 means the
// token's own account; any other id must match the token.
func owner(c *gin.Context, id int64) (int64, bool) {
	uid, ok := middleware.UserID(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized)
		return 0, false
	}
	if id == 0 {
		return uid, true
	}
	if id != uid {
		respondError(c, errNotYourAccount)
		return 0, false
	}
	return id, true
}

// ownPath is owner for ids taken from the path.
func ownPath(c *gin.Context) (int64, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return 0, false
	}
	return owner(c, id)
}
