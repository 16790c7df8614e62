package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"attendview/internal/attendance"
	"attendview/internal/backend"
	"attendview/internal/config"
	"attendview/internal/queue"
	"attendview/internal/refresh"
	"attendview/internal/reportcache"
	"attendview/internal/store"
)

// Worker consumes day refresh jobs and recomputes cached daily reports.
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if cfg.QueueBackend == "memory" {
		log.Fatal("QUEUE_BACKEND=memory is consumed inside the api process; the worker needs redis")
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policies := attendance.PolicySet{Default: attendance.DefaultPolicy()}
	if cfg.PolicyFile != "" {
		var err error
		if policies, err = attendance.LoadPolicies(cfg.PolicyFile); err != nil {
			log.Fatalf("load policies: %v", err)
		}
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis at %s not reachable, will keep retrying", cfg.RedisAddr)
	}

	var src attendance.Source = backend.New(cfg.BackendURL)
	if cfg.DataSource == config.SourcePostgres {
		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		defer pool.Close()
		src = attendance.NewRepository(pool)
	}

	var cache attendance.ReportCache
	if cfg.CacheBackend == "memory" {
		log.Println("WARNING: CACHE_BACKEND=memory, refreshed reports stay in the worker")
		cache = reportcache.NewMemory(cfg.ReportCacheTTL)
	} else {
		cache = reportcache.NewRedis(redisClient.Client, cfg.ReportCacheTTL)
	}

	w := &refresh.Worker{
		Jobs:    queue.NewRedisQueue(redisClient.Client, ""),
		Reports: attendance.NewService(src, policies, cache),
	}

	log.Println("worker started, waiting for messages...")
	if err := w.Run(ctx); err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}
	log.Println("worker stopped")
}
