package handlers

import (
	"puglands_server/internal/config"
	"puglands_server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB      *pgxpool.Pool
	Cfg     *config.Config
	Auth    *service.AuthService
	Economy *service.EconomyService
	Rewards *service.RewardService
}

func NewHandler(db *pgxpool.Pool, cfg *config.Config, broadcaster service.Broadcaster) *Handler {
	return &Handler{
		DB:      db,
		Cfg:     cfg,
		Auth:    service.NewAuthService(db),
		Economy: service.NewEconomyService(db, broadcaster),
		Rewards: service.NewRewardService(db, broadcaster),
	}
}

// getUserID extracts the resolved uid the JWT middleware stored in the
// gin context.
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
