package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketboard/internal/aggregator"
	"marketboard/internal/api"
	"marketboard/internal/cache"
	"marketboard/internal/catalog"
	"marketboard/internal/config"
	"marketboard/internal/eventbus"
	"marketboard/internal/gamedata"
	"marketboard/internal/repository"
	"marketboard/internal/store"
	"marketboard/internal/upload"
)

// BuildCommit is set at build time via -ldflags.
var BuildCommit = "dev"

func main() {
	logger, err := newLogger()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("load config failed", zap.Error(err))
	}

	logger.Info("starting marketboard",
		zap.String("commit", BuildCommit),
		zap.String("port", cfg.APIPort))

	// The catalog is load-bearing for every request; refuse to start
	// without it.
	sheets, err := gamedata.LoadDir(cfg.GameDataDir)
	if err != nil {
		logger.Fatal("load game data failed", zap.Error(err))
	}
	static, err := gamedata.LoadStatic()
	if err != nil {
		logger.Fatal("load static catalog failed", zap.Error(err))
	}
	cat := catalog.New(sheets, static)
	logger.Info("catalog built",
		zap.Int("worlds", len(cat.WorldIDs())),
		zap.Int("data_centers", len(cat.DataCenters())),
		zap.Int("marketable_items", len(cat.MarketableItems())))

	repo, err := repository.NewRepository(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect to database failed", zap.Error(err))
	}
	defer repo.Close()

	if os.Getenv("SKIP_MIGRATION") == "true" {
		logger.Info("database migration skipped")
	} else {
		if err := repo.Migrate(cfg.SchemaPath); err != nil {
			logger.Fatal("database migration failed", zap.Error(err))
		}
		logger.Info("database migration complete")
	}

	master, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("connect to redis failed", zap.Error(err))
	}
	defer master.Close()

	var replica redis.UniversalClient
	if len(cfg.RedisReplicaURLs) > 0 {
		replica, err = newRedisClient(cfg.RedisReplicaURLs[0])
		if err != nil {
			logger.Fatal("connect to redis replica failed", zap.Error(err))
		}
		defer replica.Close()
	}

	local, err := cache.NewLocal(getEnvInt("LOCAL_CACHE_SIZE", 8192), time.Minute)
	if err != nil {
		logger.Fatal("build local cache failed", zap.Error(err))
	}
	shared := cache.NewShared(master, replica, len(cfg.RedisReplicaURLs), 10*time.Minute, logger)

	listings := store.NewListingStore(repo, local, shared, logger)
	sales := store.NewSalesStore(repo, logger)
	taxRates := store.NewTaxRatesStore(master, logger)
	blacklist := store.NewBlacklist(master, logger)
	registry := store.NewTrustedSourceRegistry(master, logger)
	history := store.NewUploadCountHistory(master, logger)

	bus := eventbus.New()
	defer bus.Close()

	behaviors := []upload.Behavior{
		upload.NewListingsBehavior(listings, bus),
		upload.NewSalesBehavior(sales, bus),
		upload.NewTaxRatesBehavior(taxRates),
		upload.NewTrustedSourceIncrementBehavior(registry),
		upload.NewDailyUploadIncrementBehavior(history),
	}
	pipeline := upload.NewPipeline(registry, blacklist, cat, behaviors, logger)

	agg := aggregator.New(cat, listings, sales, logger)

	server := api.NewServer(agg, pipeline, taxRates, history, cat, blacklist, listings, bus, cfg.APIPort, logger)

	go func() {
		logger.Info("api listening", zap.String("port", cfg.APIPort))
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("shutdown did not finish cleanly", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("LOG_DEV") == "true" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newRedisClient(url string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func getEnvInt(key string, defaultVal int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			return val
		}
	}
	return defaultVal
}
