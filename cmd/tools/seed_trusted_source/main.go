// Seeds a trusted upload source: hashes the given API key and stores the
// source name under it. Run once per client application.
//
// Usage:
//
//	REDIS_URL=redis://localhost:6379 go run ./cmd/tools/seed_trusted_source -name "My Client" -key <api-key>
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketboard/internal/store"
)

func main() {
	name := flag.String("name", "", "display name of the uploading application")
	key := flag.String("key", "", "plaintext API key to register")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if *name == "" || *key == "" {
		logger.Fatal("both -name and -key are required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Fatal("parse redis url failed", zap.Error(err))
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	registry := store.NewTrustedSourceRegistry(rdb, logger)
	hash, err := registry.Register(ctx, *name, *key)
	if err != nil {
		logger.Fatal("register trusted source failed", zap.Error(err))
	}

	logger.Info("trusted source seeded",
		zap.String("name", *name),
		zap.String("api_key_hash", hash))
}
