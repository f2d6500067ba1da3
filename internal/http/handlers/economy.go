package handlers

import (
	"net/http"

	"puglands_server/internal/domain"
	"puglands_server/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type AcquireLandRequest struct {
	GX     int    `json:"gx"`
	GY     int    `json:"gy"`
	Method string `json:"method" binding:"required"`
}

func (h *Handler) AcquireLand(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req AcquireLandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, land, err := h.Economy.AcquireLand(c.Request.Context(), uid, req.GX, req.GY, domain.AcquireMethod(req.Method))
	if err != nil {
		middleware.EconomyOps.WithLabelValues("acquire_land", "error").Inc()
		writeError(c, err)
		return
	}

	middleware.EconomyOps.WithLabelValues("acquire_land", "ok").Inc()
	middleware.LandsClaimed.Inc()

	c.JSON(http.StatusOK, gin.H{"user": user, "land": land})
}

type BulkClaimRequest struct {
	Plots []domain.Plot `json:"plots" binding:"required"`
}

func (h *Handler) BulkClaim(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req BulkClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, lands, err := h.Economy.BulkClaim(c.Request.Context(), uid, req.Plots)
	if err != nil {
		middleware.EconomyOps.WithLabelValues("bulk_claim", "error").Inc()
		writeError(c, err)
		return
	}

	middleware.EconomyOps.WithLabelValues("bulk_claim", "ok").Inc()
	middleware.LandsClaimed.Add(float64(len(lands)))

	c.JSON(http.StatusOK, gin.H{"user": user, "lands": lands})
}

type ExchangeRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (h *Handler) ExchangeCoins(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.Economy.ExchangePugCoins(c.Request.Context(), uid, req.Amount)
	if err != nil {
		middleware.EconomyOps.WithLabelValues("exchange", "error").Inc()
		writeError(c, err)
		return
	}

	middleware.EconomyOps.WithLabelValues("exchange", "ok").Inc()
	c.JSON(http.StatusOK, user)
}

type GrantPugbucksRequest struct {
	UID    int64   `json:"uid"`
	Amount float64 `json:"amount" binding:"required"`
}

// GrantPugbucks is admin-only: the caller's own resolved identity is checked
// against the configured admin list. A client-supplied flag is never trusted.
func (h *Handler) GrantPugbucks(c *gin.Context) {
	callerID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if !h.Cfg.IsAdmin(callerID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	var req GrantPugbucksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	target := req.UID
	if target == 0 {
		target = callerID
	}

	user, err := h.Economy.GrantPugbucks(c.Request.Context(), target, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
