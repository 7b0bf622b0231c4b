package store

import (
	"context"

	"go.uber.org/zap"

	"marketboard/internal/models"
)

type salesRepo interface {
	AppendSales(ctx context.Context, key models.WorldItem, sales []models.Sale) error
	RecentSales(ctx context.Context, key models.WorldItem, limit int) ([]models.Sale, error)
}

// SalesStore is the append-only sale history. Histories grow monotonically
// and reads are rare next to listing reads, so there is no cache in front
// of it.
type SalesStore struct {
	repo salesRepo
	log  *zap.Logger
}

func NewSalesStore(repo salesRepo, log *zap.Logger) *SalesStore {
	return &SalesStore{repo: repo, log: log.Named("sales")}
}

// Append records completed sales for a pair; replayed rows are dropped by
// the dedup index.
func (s *SalesStore) Append(ctx context.Context, key models.WorldItem, sales []models.Sale) error {
	if err := s.repo.AppendSales(ctx, key, sales); err != nil {
		s.log.Error("append sales failed",
			zap.Int32("world", key.WorldID),
			zap.Int32("item", key.ItemID),
			zap.Error(err))
		return err
	}
	return nil
}

// Recent returns up to limit sales for a pair, newest first.
func (s *SalesStore) Recent(ctx context.Context, key models.WorldItem, limit int) ([]models.Sale, error) {
	sales, err := s.repo.RecentSales(ctx, key, limit)
	if err != nil {
		s.log.Error("recent sales failed",
			zap.Int32("world", key.WorldID),
			zap.Int32("item", key.ItemID),
			zap.Error(err))
		return nil, err
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	return sales, nil
}
