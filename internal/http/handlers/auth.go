package handlers

import (
	"net/http"

	"tapearn/internal/domain"
	"tapearn/internal/logger"
	"tapearn/internal/service"
	"tapearn/internal/telegram"

	"github.com/gin-gonic/gin"
)

const maxInitDataLen = 4096

type AuthRequest struct {
	InitData string `json:"init_data"`
}

func (h *Handler) validateInitData(c *gin.Context) (*telegram.InitData, bool) {
	var req AuthRequest
	if !bindJSON(c, &req) {
		return nil, false
	}
	if req.InitData == "" || len(req.InitData) > maxInitDataLen {
		badRequest(c, "init_data is missing or too long")
		return nil, false
	}

	data, err := telegram.ValidateInitData(req.InitData, h.auth.BotToken, h.auth.MaxAge, h.now())
	if err != nil {
		logger.WithContext(c.Request.Context()).Warn("init data rejected", "ip", c.ClientIP(), "error", err)
		respondError(c, err)
		return nil, false
	}
	return data, true
}

// Auth exchanges WebApp init data for a player token, creating the account on
// first login. A ref_<id> start parameter links the referral.
func (h *Handler) Auth(c *gin.Context) {
	data, ok := h.validateInitData(c)
	if !ok {
		return
	}

	var referrerID int64
	if id, ok := telegram.ParseReferralCode(data.StartParam); ok {
		referrerID = id
	}

	ctx := c.Request.Context()
	acc, created, err := h.Accounts.GetOrCreate(ctx, data.User.Profile(), referrerID)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := service.GenerateJWT(acc.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Audit.LogLogin(ctx, acc.ID, false, c.ClientIP(), c.Request.UserAgent())

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(service.PlayerTokenTTL.Seconds()),
		"created":    created,
		"user":       acc,
	})
}

// AdminAuth issues an admin token to roster members.
func (h *Handler) AdminAuth(c *gin.Context) {
	data, ok := h.validateInitData(c)
	if !ok {
		return
	}

	role, ok := h.auth.Roster.Role(data.User.ID)
	if !ok {
		logger.WithContext(c.Request.Context()).Warn("admin login refused", "tg_id", data.User.ID, "ip", c.ClientIP())
		respondError(c, domain.ErrForbidden)
		return
	}

	token, err := service.GenerateAdminJWT(data.User.ID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Audit.LogLogin(c.Request.Context(), data.User.ID, true, c.ClientIP(), c.Request.UserAgent())

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"role":       role,
		"expires_in": int(service.AdminTokenTTL.Seconds()),
	})
}
