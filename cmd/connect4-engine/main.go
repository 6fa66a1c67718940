package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connect4-engine/internals/config"
	"connect4-engine/internals/handlers/analysis"
	"connect4-engine/internals/handlers/matches"
	"connect4-engine/internals/storage"

	"github.com/rs/cors"
)

func main() {
	fmt.Println("Starting main...")
	cfg := config.MustLoad()
	fmt.Println("Config loaded")

	repo, err := storage.New(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	fmt.Println("Database ready")

	matchHandler, err := matches.New(cfg, repo)
	if err != nil {
		log.Fatalf("Failed to set up match handlers: %v", err)
	}

	router := http.NewServeMux()
	router.HandleFunc("/api/analyze", analysis.Handler(cfg)) // pick a move for a posted board
	matchHandler.Register(router)                            // AI vs Random matches and rankings

	fmt.Println("Router setup complete")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	handler := c.Handler(router)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: handler,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("Server started on %s (ai=%s depth=%d)\n", server.Addr, cfg.AISide(), cfg.AI.Depth)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-done
	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to gracefully shutdown server: %v", err)
	}
	fmt.Println("Server stopped")
}
