package handlers

import (
	"errors"
	"net/http"

	"tapearn/internal/domain"
	"tapearn/internal/logger"
	"tapearn/internal/telegram"

	"github.com/gin-gonic/gin"
)

// GetUser returns the account snapshot with energy regenerated.
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := ownPath(c)
	if !ok {
		return
	}
	acc, err := h.Accounts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

type CreateUserRequest struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	ReferrerID int64  `json:"referrer_id"`
}

// CreateUser is idempotent: an existing account is returned as is. A
// referrer_id is honoured on creation and, for an existing account that was
// never referred, linked through the referral ledger.
func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	id, ok := owner(c, req.ID)
	if !ok {
		return
	}

	acc, created, err := h.Accounts.GetOrCreate(c.Request.Context(), domain.Profile{
		ID:        id,
		Username:  req.Username,
		FirstName: req.FirstName,
	}, req.ReferrerID)
	if err != nil {
		respondError(c, err)
		return
	}

	referred := false
	if !created && req.ReferrerID != 0 && req.ReferrerID != id && acc.ReferredBy == nil {
		out, err := h.Referrals.Apply(c.Request.Context(), id, telegram.ReferralCode(req.ReferrerID))
		switch {
		case err == nil:
			acc, referred = out.Account, true
		case errors.Is(err, domain.ErrReferrerNotFound), errors.Is(err, domain.ErrAlreadyReferred):
			logger.WithContext(c.Request.Context()).Info("referrer not linked",
				"account_id", id, "referrer_id", req.ReferrerID, "error", err)
		default:
			respondError(c, err)
			return
		}
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"user": acc, "created": created, "referred": referred})
}

func (h *Handler) Energy(c *gin.Context) {
	id, ok := ownPath(c)
	if !ok {
		return
	}
	st, err := h.Accounts.Energy(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) Stats(c *gin.Context) {
	id, ok := ownPath(c)
	if !ok {
		return
	}
	st, err := h.Accounts.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) Transactions(c *gin.Context) {
	id, ok := ownPath(c)
	if !ok {
		return
	}
	txs, err := h.Accounts.Transactions(c.Request.Context(), id, queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// Validate repairs an account whose fields drifted out of range.
func (h *Handler) Validate(c *gin.Context) {
	id, ok := ownPath(c)
	if !ok {
		return
	}
	acc, fixed, err := h.Accounts.Repair(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": acc, "repaired": fixed})
}

type PayoutAddressRequest struct {
	PayoutAddress string `json:"payout_address"`
}

func (h *Handler) SetPayoutAddress(c *gin.Context) {
	id, ok := ownPath(c)
	if !ok {
		return
	}
	var req PayoutAddressRequest
	if !bindJSON(c, &req) {
		return
	}
	acc, err := h.Accounts.SetPayoutAddress(c.Request.Context(), id, req.PayoutAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": acc})
}

type TapRequest struct {
	ID   int64 `json:"id"`
	Taps *int  `json:"taps"`
}

// Tap spends energy for coins. taps defaults to 1.
func (h *Handler) Tap(c *gin.Context) {
	var req TapRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	id, ok := owner(c, req.ID)
	if !ok {
		return
	}
	n := 1
	if req.Taps != nil {
		n = *req.Taps
	}

	out, err := h.Accounts.Tap(c.Request.Context(), id, n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"coins":              out.Account.Coins,
		"energy":             out.Account.Energy,
		"max_energy":         out.Account.MaxEnergy,
		"tap_power":          out.Account.TapPower,
		"total_earned":       out.Account.TotalEarned,
		"last_energy_update": out.Account.LastEnergyUpdate,
		"taps":               out.Taps,
		"earned":             out.Earned,
	})
}

func (h *Handler) Upgrades(c *gin.Context) {
	id, ok := ownPath(c)
	if !ok {
		return
	}
	cat, err := h.Accounts.Upgrades(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

type UpgradeRequest struct {
	ID          int64  `json:"id"`
	UpgradeType string `json:"upgrade_type"`
}

func (h *Handler) Upgrade(c *gin.Context) {
	var req UpgradeRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := owner(c, req.ID)
	if !ok {
		return
	}
	out, err := h.Accounts.Upgrade(c.Request.Context(), id, req.UpgradeType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Leaderboard is public.
func (h *Handler) Leaderboard(c *gin.Context) {
	entries, err := h.Accounts.Leaderboard(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
