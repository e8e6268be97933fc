package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) MinigameCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": h.Minigames.Catalog()})
}

type MinigameRewardRequest struct {
	ID       int64  `json:"id"`
	Amount   int64  `json:"amount"`
	GameName string `json:"game_name"`
}

func (h *Handler) MinigameReward(c *gin.Context) {
	var req MinigameRewardRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := owner(c, req.ID)
	if !ok {
		return
	}

	acc, err := h.Minigames.Reward(c.Request.Context(), id, req.GameName, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": acc, "reward": req.Amount, "game_name": req.GameName})
}

type SpinRequest struct {
	ID int64 `json:"id"`
}

func (h *Handler) Spin(c *gin.Context) {
	var req SpinRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	id, ok := owner(c, req.ID)
	if !ok {
		return
	}
	out, err := h.Minigames.Spin(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
