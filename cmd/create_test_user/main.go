package main

import (
	"context"
	"log"
	"os"

	"puglands_server/internal/db"
	"puglands_server/internal/service"
)

func main() {
	// expects DATABASE_URL and JWT_SECRET env vars
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	service.InitJWT()

	auth := service.NewAuthService(pool)
	ctx := context.Background()

	email := "tester@example.com"
	password := "test-password-123"

	u, token, err := auth.Signup(ctx, "Tester", email, password)
	if err != nil {
		// user probably already exists; log in instead
		u, token, err = auth.Login(ctx, email, password)
		if err != nil {
			log.Fatalf("signup and login both failed: %v", err)
		}
		log.Printf("user already exists id=%d\n", u.ID)
	} else {
		log.Printf("user created id=%d balance=%f\n", u.ID, u.Balance)
	}

	log.Printf("token=%s\n", token)
}
