package handlers

import (
	"net/http"
	"strconv"

	"puglands_server/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetAllLands is public: the world map is visible to everyone.
func (h *Handler) GetAllLands(c *gin.Context) {
	lands, err := h.Economy.GetAllLands(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if lands == nil {
		lands = []*domain.Land{}
	}
	c.JSON(http.StatusOK, lands)
}

func (h *Handler) GetUserLands(c *gin.Context) {
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

	lands, err := h.Economy.GetUserLands(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	if lands == nil {
		lands = []*domain.Land{}
	}
	c.JSON(http.StatusOK, lands)
}
