package middleware

import (
	"net/http"

	"tapearn/internal/domain"

	"github.com/gin-gonic/gin"
)

// StatusFor maps an error code to the HTTP status it is served with.
func StatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeInsufficientCoins, domain.CodeInsufficientEnergy:
		return http.StatusUnprocessableEntity
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the JSON shape of every error response.
func ErrorBody(code domain.ErrorCode, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

// AbortError stops the handler chain with err.
func AbortError(c *gin.Context, err *domain.Error) {
	c.AbortWithStatusJSON(StatusFor(err.Code), ErrorBody(err.Code, err.Message))
}
