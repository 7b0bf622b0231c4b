// Package aggregator combines per-world listings and sales into the views
// the API serves: a single world, or a data center merged across its
// member worlds.
package aggregator

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"marketboard/internal/apperr"
	"marketboard/internal/catalog"
	"marketboard/internal/models"
)

type listingSource interface {
	RetrieveLive(ctx context.Context, key models.WorldItem) ([]models.Listing, error)
	RetrieveManyLive(ctx context.Context, worldIDs, itemIDs []int32) (map[models.WorldItem][]models.Listing, error)
}

type salesSource interface {
	Recent(ctx context.Context, key models.WorldItem, limit int) ([]models.Sale, error)
}

type tokenResolver interface {
	Resolve(token string) (catalog.WorldOrDc, error)
	WorldName(id int32) (string, bool)
	IsMarketable(itemID int32) bool
}

// AnnotatedListing is a listing tagged with its source world for merged
// data-center views.
type AnnotatedListing struct {
	models.Listing
	WorldName string `json:"world_name,omitempty"`
}

// AnnotatedSale mirrors AnnotatedListing for sale history.
type AnnotatedSale struct {
	models.Sale
	WorldName string `json:"world_name,omitempty"`
}

// ListingsView is the current-listings response for a world or DC token.
type ListingsView struct {
	ItemID     int32              `json:"item_id"`
	WorldID    *int32             `json:"world_id,omitempty"`
	WorldName  string             `json:"world_name,omitempty"`
	DcName     string             `json:"dc_name,omitempty"`
	Listings   []AnnotatedListing `json:"listings"`
}

// SalesView is the history response for a world or DC token.
type SalesView struct {
	ItemID    int32           `json:"item_id"`
	WorldID   *int32          `json:"world_id,omitempty"`
	WorldName string          `json:"world_name,omitempty"`
	DcName    string          `json:"dc_name,omitempty"`
	Entries   []AnnotatedSale `json:"entries"`
}

// Aggregator resolves worldOrDc tokens and fans fetches out across member
// worlds.
type Aggregator struct {
	resolver tokenResolver
	listings listingSource
	sales    salesSource
	log      *zap.Logger
}

func New(resolver tokenResolver, listings listingSource, sales salesSource, log *zap.Logger) *Aggregator {
	return &Aggregator{
		resolver: resolver,
		listings: listings,
		sales:    sales,
		log:      log.Named("aggregator"),
	}
}

// ResolveAndFetchListings returns the merged price-ascending listing view
// for the token. Unknown tokens and non-marketable items are NotFound.
func (a *Aggregator) ResolveAndFetchListings(ctx context.Context, itemID int32, token string) (*ListingsView, error) {
	target, err := a.resolveMarketable(itemID, token)
	if err != nil {
		return nil, err
	}

	if target.World != nil {
		w := target.World
		listings, err := a.listings.RetrieveLive(ctx, models.WorldItem{WorldID: w.ID, ItemID: itemID})
		if err != nil {
			return nil, err
		}
		return &ListingsView{
			ItemID:    itemID,
			WorldID:   &w.ID,
			WorldName: w.Name,
			Listings:  annotateListings(listings, nil),
		}, nil
	}

	dc := target.Dc
	byPair, err := a.listings.RetrieveManyLive(ctx, dc.WorldIDs, []int32{itemID})
	if err != nil {
		return nil, err
	}

	merged := make([]AnnotatedListing, 0)
	for _, worldID := range dc.WorldIDs {
		group := byPair[models.WorldItem{WorldID: worldID, ItemID: itemID}]
		name, ok := a.resolver.WorldName(worldID)
		if !ok {
			// Historical rows can predate a catalog update; skip them.
			continue
		}
		merged = append(merged, annotateListings(group, &name)...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].PricePerUnit != merged[j].PricePerUnit {
			return merged[i].PricePerUnit < merged[j].PricePerUnit
		}
		return merged[i].ListingID < merged[j].ListingID
	})

	return &ListingsView{ItemID: itemID, DcName: dc.Name, Listings: merged}, nil
}

// ResolveAndFetchSales returns the merged newest-first sale view for the
// token, at most limit entries.
func (a *Aggregator) ResolveAndFetchSales(ctx context.Context, itemID int32, token string, limit int) (*SalesView, error) {
	target, err := a.resolveMarketable(itemID, token)
	if err != nil {
		return nil, err
	}

	if target.World != nil {
		w := target.World
		sales, err := a.sales.Recent(ctx, models.WorldItem{WorldID: w.ID, ItemID: itemID}, limit)
		if err != nil {
			return nil, err
		}
		return &SalesView{
			ItemID:    itemID,
			WorldID:   &w.ID,
			WorldName: w.Name,
			Entries:   annotateSales(sales, nil),
		}, nil
	}

	dc := target.Dc
	merged := make([]AnnotatedSale, 0)
	for _, worldID := range dc.WorldIDs {
		name, ok := a.resolver.WorldName(worldID)
		if !ok {
			continue
		}
		sales, err := a.sales.Recent(ctx, models.WorldItem{WorldID: worldID, ItemID: itemID}, limit)
		if err != nil {
			return nil, err
		}
		merged = append(merged, annotateSales(sales, &name)...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].SoldAt.After(merged[j].SoldAt)
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	return &SalesView{ItemID: itemID, DcName: dc.Name, Entries: merged}, nil
}

func (a *Aggregator) resolveMarketable(itemID int32, token string) (catalog.WorldOrDc, error) {
	if token == "" {
		return catalog.WorldOrDc{}, apperr.NotFound("empty world/dc token")
	}
	if !a.resolver.IsMarketable(itemID) {
		return catalog.WorldOrDc{}, apperr.NotFound("item is not marketable")
	}
	return a.resolver.Resolve(token)
}

func annotateListings(in []models.Listing, worldName *string) []AnnotatedListing {
	out := make([]AnnotatedListing, len(in))
	for i, l := range in {
		out[i] = AnnotatedListing{Listing: l}
		if worldName != nil {
			out[i].WorldName = *worldName
		}
	}
	return out
}

func annotateSales(in []models.Sale, worldName *string) []AnnotatedSale {
	out := make([]AnnotatedSale, len(in))
	for i, s := range in {
		out[i] = AnnotatedSale{Sale: s}
		if worldName != nil {
			out[i].WorldName = *worldName
		}
	}
	return out
}
