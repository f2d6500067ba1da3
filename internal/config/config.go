package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"puglands_server/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	// Admin users allowed to call grant_pugbucks and resolve redemptions.
	AdminUserIDs []int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limits (fixed window)
	APIRateLimit   int
	APIRateWindow  time.Duration
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Comma-separated admin uids.
	var adminIDs []int64
	if s := os.Getenv("ADMIN_USER_IDS"); s != "" {
		for _, idStr := range strings.Split(s, ",") {
			idStr = strings.TrimSpace(idStr)
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				adminIDs = append(adminIDs, id)
			}
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return &Config{
		AppPort:        port,
		DatabaseURL:    dbURL,
		JWTSecret:      jwtSecret,
		AdminUserIDs:   adminIDs,
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		APIRateLimit:   envInt("API_RATE_LIMIT", 60),
		APIRateWindow:  envSeconds("API_RATE_WINDOW_SECONDS", time.Minute),
		AuthRateLimit:  envInt("AUTH_RATE_LIMIT", 5),
		AuthRateWindow: envSeconds("AUTH_RATE_WINDOW_SECONDS", time.Minute),
	}
}

// IsAdmin reports whether uid is in the configured admin list.
func (c *Config) IsAdmin(uid int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == uid {
			return true
		}
	}
	return false
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
