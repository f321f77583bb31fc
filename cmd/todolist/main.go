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

	"github.com/joho/godotenv"

	"github.com/atiohaidar/todolist/internal/auth"
	"github.com/atiohaidar/todolist/internal/blob"
	"github.com/atiohaidar/todolist/internal/database"
	"github.com/atiohaidar/todolist/internal/logging"
	"github.com/atiohaidar/todolist/internal/server"
)

func main() {
	// Optional .env for local development
	godotenv.Load()

	logger := logging.Setup(os.Getenv("TODOLIST_LOG_LEVEL"))

	port := os.Getenv("TODOLIST_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("TODOLIST_DB_PATH")
	if dbPath == "" {
		dbPath = "todolist.db"
	}

	secret := os.Getenv("TODOLIST_JWT_SECRET")
	if secret == "" {
		log.Fatal("TODOLIST_JWT_SECRET must be set")
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	s3cfg := blob.S3Config{
		Endpoint:  os.Getenv("TODOLIST_S3_ENDPOINT"),
		Bucket:    os.Getenv("TODOLIST_S3_BUCKET"),
		Region:    os.Getenv("TODOLIST_S3_REGION"),
		AccessKey: os.Getenv("TODOLIST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("TODOLIST_S3_SECRET_KEY"),
	}

	var blobs blob.Store
	if s3cfg.Bucket != "" && s3cfg.AccessKey != "" && s3cfg.SecretKey != "" {
		blobs = blob.NewS3Store(s3cfg)
	} else {
		logger.Warn("no S3 configuration, attachments stored in memory only")
		blobs = blob.NewMemoryStore()
	}

	tokens := auth.NewTokenIssuer([]byte(secret))
	srv := server.New(db, blobs, tokens, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("todolist running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
