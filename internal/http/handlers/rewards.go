package handlers

import (
	"net/http"
	"strconv"

	"puglands_server/internal/http/middleware"
	"puglands_server/internal/service"

	"github.com/gin-gonic/gin"
)

// The grant endpoints are the reward-confirmation boundary: the ad network
// collaborator reports a completed view and the service decides whether the
// cooldown allows the grant.

func (h *Handler) GrantVoucher(c *gin.Context) {
	h.grantReward(c, service.RewardVoucher)
}

func (h *Handler) GrantBoost(c *gin.Context) {
	h.grantReward(c, service.RewardBoost)
}

func (h *Handler) GrantRangeBoost(c *gin.Context) {
	h.grantReward(c, service.RewardRangeBoost)
}

func (h *Handler) grantReward(c *gin.Context, kind service.RewardKind) {
	uid, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	user, err := h.Rewards.OnRewardConfirmed(c.Request.Context(), uid, kind)
	if err != nil {
		middleware.EconomyOps.WithLabelValues("grant_"+string(kind), "error").Inc()
		writeError(c, err)
		return
	}

	middleware.EconomyOps.WithLabelValues("grant_"+string(kind), "ok").Inc()
	c.JSON(http.StatusOK, user)
}

type RedemptionSubmitRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (h *Handler) SubmitRedemption(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req RedemptionSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, request, err := h.Rewards.SubmitRedemption(c.Request.Context(), uid, req.Amount)
	if err != nil {
		middleware.EconomyOps.WithLabelValues("redemption", "error").Inc()
		writeError(c, err)
		return
	}

	middleware.EconomyOps.WithLabelValues("redemption", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"user": user, "request": request})
}

func (h *Handler) ListRedemptions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	reqs, err := h.Rewards.ListRedemptions(c.Request.Context(), uid, 50)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

type ResolveRedemptionRequest struct {
	Approve bool `json:"approve"`
}

// ResolveRedemption is the external reviewer action; admin-gated.
func (h *Handler) ResolveRedemption(c *gin.Context) {
	callerID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if !h.Cfg.IsAdmin(callerID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var req ResolveRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	resolved, err := h.Rewards.ResolveRedemption(c.Request.Context(), requestID, req.Approve)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolved)
}
