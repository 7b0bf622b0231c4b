package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const blacklistKey = "blacklist:uploaders"

// Blacklist is the set of flagged uploader hashes. Membership silently
// suppresses an upload's side-effects; removal is handled out of band.
type Blacklist struct {
	rdb redis.UniversalClient
	log *zap.Logger
}

func NewBlacklist(rdb redis.UniversalClient, log *zap.Logger) *Blacklist {
	return &Blacklist{rdb: rdb, log: log.Named("blacklist")}
}

// Has reports whether the uploader hash is flagged.
func (b *Blacklist) Has(ctx context.Context, uploaderHash string) (bool, error) {
	ok, err := b.rdb.SIsMember(ctx, blacklistKey, uploaderHash).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist membership: %w", err)
	}
	return ok, nil
}

// Add flags an uploader hash. Writes are additive only.
func (b *Blacklist) Add(ctx context.Context, uploaderHash string) error {
	if err := b.rdb.SAdd(ctx, blacklistKey, uploaderHash).Err(); err != nil {
		return fmt.Errorf("blacklist add: %w", err)
	}
	b.log.Info("uploader hash flagged", zap.String("hash", uploaderHash))
	return nil
}
