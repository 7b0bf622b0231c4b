package cache

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketboard/internal/metrics"
	"marketboard/internal/models"
)

const (
	// readBound caps how long a shared-tier probe may suspend the request.
	// Past it the probe counts as a miss, never as an error.
	readBound = time.Second

	// writeBound applies to the fire-and-forget population/invalidation
	// goroutines, which run detached from the request context.
	writeBound = 5 * time.Second
)

// Shared is the distributed listing cache tier. Reads are weighted across
// master and replica: a probe prefers the replica with probability
// 1/(1+R), R being the replica count, and otherwise the master. All
// failures degrade to misses with a counter bump; writes and deletes are
// fire-and-forget.
type Shared struct {
	master       redis.UniversalClient
	replica      redis.UniversalClient
	replicaCount int
	ttl          time.Duration
	log          *zap.Logger
}

// NewShared builds the shared tier. replica may be nil when the deployment
// has no read replicas; replicaCount weights the read routing.
func NewShared(master, replica redis.UniversalClient, replicaCount int, ttl time.Duration, log *zap.Logger) *Shared {
	if replica == nil {
		replicaCount = 0
	}
	return &Shared{
		master:       master,
		replica:      replica,
		replicaCount: replicaCount,
		ttl:          ttl,
		log:          log.Named("cache_l2"),
	}
}

func (c *Shared) reader() redis.UniversalClient {
	if c.replicaCount > 0 && rand.Float64() < 1.0/float64(1+c.replicaCount) {
		return c.replica
	}
	return c.master
}

// Get probes the shared tier. Timeout and cancellation are treated as a
// miss; the second return is false whenever the caller should fall through
// to the database.
func (c *Shared) Get(ctx context.Context, key string) ([]models.Listing, bool) {
	ctx, cancel := context.WithTimeout(ctx, readBound)
	defer cancel()

	data, err := c.reader().Get(ctx, key).Bytes()
	if err != nil {
		switch {
		case errors.Is(err, redis.Nil):
			metrics.Inc("cache.miss")
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			metrics.Inc("cache.timeout")
		default:
			metrics.Inc("cache.miss")
			c.log.Warn("shared cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	listings, err := decodeListings(data)
	if err != nil {
		// A corrupt entry is dropped so the next read repopulates it.
		metrics.Inc("cache.miss")
		c.log.Warn("shared cache entry corrupt", zap.String("key", key), zap.Error(err))
		c.Delete(key)
		return nil, false
	}
	metrics.Inc("cache.hit.shared")
	return listings, true
}

// Set populates the key fire-and-forget; the caller never waits on it.
func (c *Shared) Set(key string, listings []models.Listing) {
	data, err := encodeListings(listings)
	if err != nil {
		c.log.Warn("encode cache entry failed", zap.String("key", key), zap.Error(err))
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeBound)
		defer cancel()
		if err := c.master.Set(ctx, key, data, c.ttl).Err(); err != nil {
			metrics.Inc("cache.write_error")
			c.log.Warn("shared cache write failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

// Delete invalidates the key fire-and-forget.
func (c *Shared) Delete(key string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeBound)
		defer cancel()
		if err := c.master.Del(ctx, key).Err(); err != nil {
			metrics.Inc("cache.write_error")
			c.log.Warn("shared cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}()
}
