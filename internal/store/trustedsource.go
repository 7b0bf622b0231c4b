package store

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketboard/internal/models"
)

const trustedKeyPrefix = "trusted:"

// HashAPIKey derives the stored identity of an API key. Plaintext keys are
// never persisted anywhere.
func HashAPIKey(apiKey string) string {
	sum := sha512.Sum512([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

// TrustedSourceRegistry maps API-key hashes to uploading applications and
// keeps their cumulative upload counts.
type TrustedSourceRegistry struct {
	rdb redis.UniversalClient
	log *zap.Logger
}

func NewTrustedSourceRegistry(rdb redis.UniversalClient, log *zap.Logger) *TrustedSourceRegistry {
	return &TrustedSourceRegistry{rdb: rdb, log: log.Named("trusted_sources")}
}

// Get looks up the source for a plaintext API key. Unknown keys return
// (nil, nil).
func (r *TrustedSourceRegistry) Get(ctx context.Context, apiKey string) (*models.TrustedSource, error) {
	hash := HashAPIKey(apiKey)
	fields, err := r.rdb.HGetAll(ctx, trustedKeyPrefix+hash).Result()
	if err != nil {
		return nil, fmt.Errorf("trusted source lookup: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	count, _ := strconv.ParseInt(fields["upload_count"], 10, 64)
	return &models.TrustedSource{
		Name:        fields["name"],
		APIKeyHash:  hash,
		UploadCount: count,
	}, nil
}

// Increment bumps the source's upload count by one. HINCRBY is atomic at
// the store, so concurrent uploads by the same source never lose counts.
func (r *TrustedSourceRegistry) Increment(ctx context.Context, apiKeyHash string) error {
	if err := r.rdb.HIncrBy(ctx, trustedKeyPrefix+apiKeyHash, "upload_count", 1).Err(); err != nil {
		return fmt.Errorf("trusted source increment: %w", err)
	}
	return nil
}

// Register creates or renames a source. Used by the seeding tool.
func (r *TrustedSourceRegistry) Register(ctx context.Context, name, apiKey string) (string, error) {
	hash := HashAPIKey(apiKey)
	if err := r.rdb.HSet(ctx, trustedKeyPrefix+hash, "name", name).Err(); err != nil {
		return "", fmt.Errorf("trusted source register: %w", err)
	}
	r.log.Info("trusted source registered", zap.String("name", name))
	return hash, nil
}
