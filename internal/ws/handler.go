package ws

import (
	"net/http"
	"strings"

	"tapearn/internal/domain"
	"tapearn/internal/http/middleware"
	"tapearn/internal/logger"
	"tapearn/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades a player to the live feed. The token comes from the
// token query parameter (browsers cannot set headers on a websocket) or a
// bearer header.
func HandleWS(hub *Hub, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			middleware.AbortError(c, domain.ErrUnauthorized)
			return
		}

		userID, err := service.ParseJWT(token)
		if err != nil {
			middleware.AbortError(c, domain.ErrInvalidToken)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("ws upgrade failed", "error", err)
			return
		}

		go NewClient(userID, conn, hub).Run()
	}
}
