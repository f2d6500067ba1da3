package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"puglands_server/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetUser returns the authenticated user's canonical snapshot, with pending
// income accrued. Users can only read themselves.
func (h *Handler) GetUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	pathID, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil || pathID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	user, err := h.Economy.GetUser(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

type UpdateUserRequest struct {
	Name string `json:"name"`

	// Clients historically pushed their locally computed balance here. The
	// server is the source of truth, so any balance-like field is ignored.
	Balance  *float64 `json:"balance"`
	PugCoins *float64 `json:"pugCoins"`
}

// UpdateUser accepts display-name changes only.
func (h *Handler) UpdateUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	pathID, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil || pathID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		// Nothing updatable was sent; return the authoritative snapshot.
		user, err := h.Economy.GetUser(c.Request.Context(), uid)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
		return
	}

	repo := repository.NewUserRepository(h.DB)
	user, err := repo.UpdateName(c.Request.Context(), uid, name)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// History returns the user's balance-affecting operation journal.
func (h *Handler) History(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	repo := repository.NewTransactionRepository(h.DB)
	txs, err := repo.GetByUserID(c.Request.Context(), uid, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
