// cmd/worker/main.go
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/affilink/affiliate-backend/internal/adapters"
	"github.com/affilink/affiliate-backend/internal/config"
	"github.com/affilink/affiliate-backend/internal/database"
	"github.com/affilink/affiliate-backend/internal/events"
	"github.com/affilink/affiliate-backend/internal/services"
	"github.com/affilink/affiliate-backend/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close(db)

	// Connect Redis for the event bus
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	publisher := events.NewRedisPublisher(redisClient, cfg.EventBus.StreamPrefix, cfg.EventBus.Namespace)
	defer publisher.Close()

	// Marketplace adapters. The mock adapter doubles as the fallback
	// when no real adapter claims an input.
	mock := adapters.NewMockAdapter()
	registry := adapters.NewRegistry(mock)

	ingestion := services.NewIngestionService(db, publisher, registry, mock, cfg.Features.UseMockData)

	srv := worker.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Worker, ingestion)

	// Run the worker in a goroutine so shutdown stays on main
	go func() {
		log.Printf("Starting worker with concurrency %d", cfg.Worker.Concurrency)
		if err := srv.Run(); err != nil {
			log.Fatal("Failed to start worker:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the worker
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down worker...")

	srv.Shutdown()
	log.Println("Worker exited")
}
