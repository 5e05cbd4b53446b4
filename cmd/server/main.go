package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"rummy-lite/internal/gateway"
	"rummy-lite/internal/room"
	"rummy-lite/internal/session"
	"rummy-lite/internal/store"
)

func addrFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("ADDR")); v != "" {
		return v
	}
	return ":5000"
}

func main() {
	db, storeMode, err := store.NewFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init store: %v", err)
	}
	if db != nil {
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("[Server] Failed to create schema: %v", err)
		}
		if err := db.SeedReferenceData(ctx); err != nil {
			cancel()
			log.Fatalf("[Server] Failed to seed reference data: %v", err)
		}
		cancel()
		log.Printf("[Server] Database created")
	}

	sessions := session.NewDirectory()
	registry := room.NewRegistry(room.Config{})
	defer registry.Close()
	gw := gateway.New(registry, sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := addrFromEnv()
	log.Printf("[Server] Store mode: %s", storeMode)
	log.Printf("[Server] Starting WebSocket server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}
