package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// referralCode accepts the code as a JSON string or a bare number.
type referralCode string

func (r *referralCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = referralCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = referralCode(n.String())
	return nil
}

type UseReferralRequest struct {
	ID   int64        `json:"id"`
	Code referralCode `json:"code"`
}

func (h *Handler) UseReferral(c *gin.Context) {
	var req UseReferralRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := owner(c, req.ID)
	if !ok {
		return
	}

	out, err := h.Referrals.Apply(c.Request.Context(), id, string(req.Code))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ReferralList(c *gin.Context) {
	id, ok := ownPath(c)
	if !ok {
		return
	}
	list, err := h.Referrals.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
