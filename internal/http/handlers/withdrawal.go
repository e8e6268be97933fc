package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type WithdrawRequest struct {
	ID            int64  `json:"id"`
	Amount        int64  `json:"amount"`
	PayoutAddress string `json:"payout_address"`
}

// Withdraw files a pending withdrawal; the coins leave the balance now.
func (h *Handler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := owner(c, req.ID)
	if !ok {
		return
	}

	out, err := h.Withdrawals.Request(c.Request.Context(), id, req.Amount, req.PayoutAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"withdrawal": out.Withdrawal,
		"user":       out.Account,
		"message":    "Withdrawal request submitted",
	})
}

func (h *Handler) WithdrawalHistory(c *gin.Context) {
	id, ok := ownPath(c)
	if !ok {
		return
	}
	list, err := h.Withdrawals.History(c.Request.Context(), id, queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}
