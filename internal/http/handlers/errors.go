package handlers

import (
	"errors"
	"net/http"

	"puglands_server/internal/domain"
	"puglands_server/internal/logger"

	"github.com/gin-gonic/gin"
)

// writeError translates a typed domain error into an HTTP status and a short
// message. Internals never cross the boundary: anything unrecognized becomes
// a plain 500.
func writeError(c *gin.Context, err error) {
	var owned *domain.AlreadyOwnedError
	if errors.As(err, &owned) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "land already owned",
			"gx":    owned.GX,
			"gy":    owned.GY,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, domain.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case errors.Is(err, domain.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient funds"})
	case errors.Is(err, domain.ErrInsufficientVouchers):
		c.JSON(http.StatusBadRequest, gin.H{"error": "not enough vouchers"})
	case errors.Is(err, domain.ErrCooldownActive):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "reward is still cooling down"})
	case errors.Is(err, domain.ErrPendingRequestExists):
		c.JSON(http.StatusConflict, gin.H{"error": "a redemption request is already pending"})
	case errors.Is(err, domain.ErrAlreadyOwned), errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	case errors.Is(err, domain.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		logger.Error("internal error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
