package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"tapearn/internal/domain"
	"tapearn/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func adminID(c *gin.Context) (int64, bool) {
	claims, ok := middleware.Admin(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized)
		return 0, false
	}
	return claims.AdminID, true
}

func (h *Handler) AdminStats(c *gin.Context) {
	st, err := h.Admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) AdminUsers(c *gin.Context) {
	page, err := h.Admin.Users(c.Request.Context(), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) AdminUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.Admin.User(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) AdminUserReferrals(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	refs, err := h.Admin.ReferralsOf(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": refs})
}

func (h *Handler) AdminTopReferrers(c *gin.Context) {
	top, err := h.Admin.TopReferrers(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	if top == nil {
		top = []domain.ReferrerStat{}
	}
	c.JSON(http.StatusOK, gin.H{"referrers": top})
}

// AdminWithdrawals lists requests, pending by default; ?status=all lists every status.
func (h *Handler) AdminWithdrawals(c *gin.Context) {
	status := domain.WithdrawalStatus(strings.ToLower(c.DefaultQuery("status", string(domain.WithdrawalStatusPending))))
	if status == "all" {
		status = ""
	}
	list, err := h.Admin.Withdrawals(c.Request.Context(), status, queryInt(c, "limit", 100))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

type ResolveWithdrawalRequest struct {
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

func withdrawalID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid withdrawal id")
		return 0, false
	}
	return id, true
}

func (h *Handler) AdminApproveWithdrawal(c *gin.Context) {
	admin, ok := adminID(c)
	if !ok {
		return
	}
	wid, ok := withdrawalID(c)
	if !ok {
		return
	}
	var req ResolveWithdrawalRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	w, err := h.Admin.ApproveWithdrawal(c.Request.Context(), admin, wid, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

func (h *Handler) AdminRejectWithdrawal(c *gin.Context) {
	admin, ok := adminID(c)
	if !ok {
		return
	}
	wid, ok := withdrawalID(c)
	if !ok {
		return
	}
	var req ResolveWithdrawalRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = strings.TrimSpace(req.Note)
	}
	if reason == "" {
		badRequest(c, "reason is required")
		return
	}

	w, err := h.Admin.RejectWithdrawal(c.Request.Context(), admin, wid, reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

type AdjustRequest struct {
	Mode   string `json:"mode"`
	Amount int64  `json:"amount"`
}

// AdminAdjust adds to (mode "add", the default) or overwrites (mode "set")
// the balance.
func (h *Handler) AdminAdjust(c *gin.Context) {
	admin, ok := adminID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AdjustRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	var (
		acc *domain.Account
		err error
	)
	switch strings.ToLower(req.Mode) {
	case "", "add":
		acc, err = h.Admin.AdjustCoins(ctx, admin, id, req.Amount)
	case "set":
		acc, err = h.Admin.SetCoins(ctx, admin, id, req.Amount)
	default:
		badRequest(c, "mode must be add or set")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": acc})
}

func (h *Handler) AdminReset(c *gin.Context) {
	admin, ok := adminID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	acc, err := h.Admin.Reset(c.Request.Context(), admin, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": acc})
}

func (h *Handler) AdminDelete(c *gin.Context) {
	admin, ok := adminID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Admin.Delete(c.Request.Context(), admin, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) AdminAudit(c *gin.Context) {
	logs, err := h.Admin.AuditTrail(c.Request.Context(), c.Query("category"), queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{"audit": logs})
}
