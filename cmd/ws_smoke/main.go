package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"puglands_server/internal/db"
	"puglands_server/internal/service"
)

// Smoke test for the push channel: sign up a throwaway user, subscribe to
// /ws, buy one plot over HTTP and verify that user_update and lands_update
// frames arrive.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	service.InitJWT()
	auth := service.NewAuthService(pool)
	ctx := context.Background()

	email := fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())
	u, token, err := auth.Signup(ctx, "Smoke", email, "smoke-password-1")
	if err != nil {
		log.Fatalf("signup: %v", err)
	}
	log.Printf("smoke user id=%d balance=%f", u.ID, u.Balance)

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	// acquire one plot far out on the grid to avoid colliding with real data
	body, _ := json.Marshal(map[string]any{
		"gx":     int(time.Now().Unix() % 1000000),
		"gy":     1200000 + int(time.Now().UnixNano()%1000),
		"method": "BUY",
	})
	req, _ := http.NewRequest("POST",
		fmt.Sprintf("http://127.0.0.1:%s/acquire_land", port), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("acquire_land: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		log.Fatalf("acquire_land status %d", res.StatusCode)
	}

	// expect both update frames within a few seconds
	want := map[string]bool{"user_update": false, "lands_update": false}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var obj map[string]any
		_ = json.Unmarshal(msg, &obj)
		if t, ok := obj["type"].(string); ok {
			if _, tracked := want[t]; tracked {
				want[t] = true
				log.Printf("got %s: %s", t, string(msg))
			}
		}
		if want["user_update"] && want["lands_update"] {
			log.Println("smoke test finished")
			return
		}
	}

	log.Fatalf("missing frames: %v", want)
}
