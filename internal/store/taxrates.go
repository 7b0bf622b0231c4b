package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketboard/internal/models"
)

const taxKeyPrefix = "tax:"

// TaxRatesStore keeps one hash per world with the eight city tax fields
// plus the uploading application's name.
type TaxRatesStore struct {
	rdb redis.UniversalClient
	log *zap.Logger
}

func NewTaxRatesStore(rdb redis.UniversalClient, log *zap.Logger) *TaxRatesStore {
	return &TaxRatesStore{rdb: rdb, log: log.Named("tax_rates")}
}

// Update writes all fields for the world. Failures are returned but a
// caller may treat them as fire-and-forget; tax rates are re-uploaded
// constantly.
func (s *TaxRatesStore) Update(ctx context.Context, worldID int32, rates models.TaxRates) error {
	key := taxKeyPrefix + strconv.FormatInt(int64(worldID), 10)
	err := s.rdb.HSet(ctx, key,
		"limsa_lominsa", rates.LimsaLominsa,
		"gridania", rates.Gridania,
		"uldah", rates.Uldah,
		"ishgard", rates.Ishgard,
		"kugane", rates.Kugane,
		"crystarium", rates.Crystarium,
		"old_sharlayan", rates.OldSharlayan,
		"tuliyollal", rates.Tuliyollal,
		"source", rates.Source,
	).Err()
	if err != nil {
		return fmt.Errorf("write tax rates world=%d: %w", worldID, err)
	}
	return nil
}

// Retrieve assembles the rates for a world; unknown worlds return nil.
func (s *TaxRatesStore) Retrieve(ctx context.Context, worldID int32) (*models.TaxRates, error) {
	key := taxKeyPrefix + strconv.FormatInt(int64(worldID), 10)
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("read tax rates world=%d: %w", worldID, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	atoi := func(name string) int32 {
		n, _ := strconv.ParseInt(fields[name], 10, 32)
		return int32(n)
	}
	return &models.TaxRates{
		LimsaLominsa: atoi("limsa_lominsa"),
		Gridania:     atoi("gridania"),
		Uldah:        atoi("uldah"),
		Ishgard:      atoi("ishgard"),
		Kugane:       atoi("kugane"),
		Crystarium:   atoi("crystarium"),
		OldSharlayan: atoi("old_sharlayan"),
		Tuliyollal:   atoi("tuliyollal"),
		Source:       fields["source"],
	}, nil
}
