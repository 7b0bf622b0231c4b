package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"marketboard/internal/metrics"
	"marketboard/internal/models"
)

// listingKey is the cache key shared by both tiers. The "4" is the cache
// schema version; bump it when the encoded value layout changes.
func listingKey(key models.WorldItem) string {
	return fmt.Sprintf("listing4:%d:%d", key.WorldID, key.ItemID)
}

type listingRepo interface {
	ReplaceGroup(ctx context.Context, key models.WorldItem, listings []models.Listing, uploadedAt time.Time) error
	DeleteGroup(ctx context.Context, key models.WorldItem) error
	ListingsFor(ctx context.Context, key models.WorldItem) ([]models.Listing, error)
	ListingsForMany(ctx context.Context, worldIDs, itemIDs []int32) (map[models.WorldItem][]models.Listing, error)
}

type localCache interface {
	Get(key string) ([]models.Listing, bool)
	Set(key string, listings []models.Listing)
	Delete(key string)
}

type sharedCache interface {
	Get(ctx context.Context, key string) ([]models.Listing, bool)
	Set(key string, listings []models.Listing)
	Delete(key string)
}

// ListingStore serves the freshest live listing set per (world,item) under
// a read-heavy workload. Reads go L1 → L2 → database; writes replace the
// whole set for a pair and invalidate both tiers before returning, so the
// writer observes its own write on the next read. Other processes may hold
// L1 entries for up to the L1 TTL; that staleness bound is accepted.
type ListingStore struct {
	repo  listingRepo
	local localCache
	share sharedCache
	log   *zap.Logger
}

func NewListingStore(repo listingRepo, local localCache, share sharedCache, log *zap.Logger) *ListingStore {
	return &ListingStore{
		repo:  repo,
		local: local,
		share: share,
		log:   log.Named("listings"),
	}
}

// ReplaceLive groups the input by (world,item) and replaces each group's
// live set in its own transactional batch, stamping inserted rows with the
// wall-clock at batch start. Groups are independent: when one fails,
// earlier groups stay committed with their caches already invalidated, and
// the returned error names the failing pair. No compensation is attempted.
func (s *ListingStore) ReplaceLive(ctx context.Context, listings []models.Listing) error {
	groups := make(map[models.WorldItem][]models.Listing)
	var order []models.WorldItem
	for _, l := range listings {
		key := models.WorldItem{WorldID: l.WorldID, ItemID: l.ItemID}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], l)
	}

	for _, key := range order {
		uploadedAt := time.Now().UTC()
		if err := s.repo.ReplaceGroup(ctx, key, groups[key], uploadedAt); err != nil {
			s.log.Error("replace listings failed",
				zap.Int32("world", key.WorldID),
				zap.Int32("item", key.ItemID),
				zap.Error(err))
			return err
		}
		s.invalidate(key)
	}
	return nil
}

// DeleteLive removes all live listings for a pair and invalidates both
// cache tiers.
func (s *ListingStore) DeleteLive(ctx context.Context, key models.WorldItem) error {
	if err := s.repo.DeleteGroup(ctx, key); err != nil {
		s.log.Error("delete listings failed",
			zap.Int32("world", key.WorldID),
			zap.Int32("item", key.ItemID),
			zap.Error(err))
		return err
	}
	s.invalidate(key)
	return nil
}

// RetrieveLive returns the live listings for a pair, unit price ascending.
// Cache probes never fail the call; only database errors propagate.
func (s *ListingStore) RetrieveLive(ctx context.Context, key models.WorldItem) ([]models.Listing, error) {
	k := listingKey(key)

	if listings, ok := s.local.Get(k); ok {
		metrics.Inc("cache.hit.local")
		return listings, nil
	}

	if listings, ok := s.share.Get(ctx, k); ok {
		s.local.Set(k, listings)
		return listings, nil
	}

	listings, err := s.repo.ListingsFor(ctx, key)
	if err != nil {
		s.log.Error("retrieve listings failed",
			zap.Int32("world", key.WorldID),
			zap.Int32("item", key.ItemID),
			zap.Error(err))
		return nil, err
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	s.local.Set(k, listings)
	s.share.Set(k, listings)
	return listings, nil
}

// RetrieveManyLive fetches the cross product of worlds and items in a
// single database round trip. Pairs with no listings map to empty slices.
// The bulk path bypasses the caches; it backs data-center fan-out where
// per-pair probing would multiply round trips.
func (s *ListingStore) RetrieveManyLive(ctx context.Context, worldIDs, itemIDs []int32) (map[models.WorldItem][]models.Listing, error) {
	out, err := s.repo.ListingsForMany(ctx, worldIDs, itemIDs)
	if err != nil {
		s.log.Error("bulk retrieve listings failed", zap.Error(err))
		return nil, err
	}
	for key, group := range out {
		if group == nil {
			out[key] = []models.Listing{}
		}
	}
	return out, nil
}

func (s *ListingStore) invalidate(key models.WorldItem) {
	k := listingKey(key)
	s.share.Delete(k)
	s.local.Delete(k)
}
