package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"tapearn/internal/domain"
	"tapearn/internal/logger"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler consumes Telegram updates.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// TelegramWebhook accepts updates pushed by Telegram. When secret is set the
// request must carry it in X-Telegram-Bot-Api-Secret-Token. Processing
// errors are logged and still answered with 200 so Telegram does not retry.
func TelegramWebhook(secret string, bot UpdateHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret != "" {
			got := c.GetHeader(telegramSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				respondError(c, domain.ErrUnauthorized)
				return
			}
		}

		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			logger.WithContext(c.Request.Context()).Warn("bad telegram update", "error", err)
			badRequest(c, "invalid update")
			return
		}

		bot.HandleUpdate(c.Request.Context(), update)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
