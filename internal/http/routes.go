package http

import (
	"puglands_server/internal/config"
	"puglands_server/internal/http/handlers"
	"puglands_server/internal/http/middleware"
	"puglands_server/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config, version string) *ws.Hub {
	hub := ws.NewHub()
	h := handlers.NewHandler(db, cfg, hub)
	healthHandler := handlers.NewHealthHandler(db, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(v1, h, cfg)

	// Legacy unversioned routes: the first mobile client builds call these
	// paths directly off the root.
	api := r.Group("/")
	api.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(api, h, cfg)

	// Push channel
	r.GET("/ws", h.WS(hub))

	return hub
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg *config.Config) {
	authRL := middleware.RedisRateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow)

	// Auth
	api.POST("/signup", authRL, h.Signup)
	api.POST("/login", authRL, h.Login)

	// User state (accrual applied on every read)
	api.GET("/user/:uid", middleware.JWT(), h.GetUser)
	api.PUT("/user/:uid", middleware.JWT(), h.UpdateUser)
	api.GET("/history", middleware.JWT(), h.History)

	// Lands
	api.GET("/lands", h.GetAllLands)
	api.GET("/lands/user/:uid", middleware.JWT(), h.GetUserLands)

	// Acquisition and currency
	api.POST("/acquire_land", middleware.JWT(), h.AcquireLand)
	api.POST("/bulk_claim_with_vouchers", middleware.JWT(), h.BulkClaim)
	api.POST("/exchange_coins", middleware.JWT(), h.ExchangeCoins)

	// Ad reward confirmations
	api.POST("/grant_voucher", middleware.JWT(), h.GrantVoucher)
	api.POST("/grant_boost", middleware.JWT(), h.GrantBoost)
	api.POST("/grant_range_boost", middleware.JWT(), h.GrantRangeBoost)

	// Redemptions
	api.POST("/redemptions", middleware.JWT(), h.SubmitRedemption)
	api.GET("/redemptions", middleware.JWT(), h.ListRedemptions)
	api.POST("/redemptions/:id/resolve", middleware.JWT(), h.ResolveRedemption)

	// Admin
	api.POST("/grant_pugbucks", middleware.JWT(), h.GrantPugbucks)
}
