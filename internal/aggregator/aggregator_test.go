package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"marketboard/internal/apperr"
	"marketboard/internal/catalog"
	"marketboard/internal/models"
)

type fakeResolver struct {
	worlds     map[int32]string
	dcs        map[string]models.DataCenter
	marketable map[int32]bool
}

func (r *fakeResolver) Resolve(token string) (catalog.WorldOrDc, error) {
	for id, name := range r.worlds {
		if name == token {
			return catalog.WorldOrDc{World: &models.World{ID: id, Name: name}}, nil
		}
	}
	if dc, ok := r.dcs[token]; ok {
		return catalog.WorldOrDc{Dc: &dc}, nil
	}
	return catalog.WorldOrDc{}, apperr.NotFound("unknown token " + token)
}

func (r *fakeResolver) WorldName(id int32) (string, bool) {
	name, ok := r.worlds[id]
	return name, ok
}

func (r *fakeResolver) IsMarketable(itemID int32) bool { return r.marketable[itemID] }

type fakeListings struct {
	data map[models.WorldItem][]models.Listing
}

func (f *fakeListings) RetrieveLive(ctx context.Context, key models.WorldItem) ([]models.Listing, error) {
	if f.data[key] == nil {
		return []models.Listing{}, nil
	}
	return f.data[key], nil
}

func (f *fakeListings) RetrieveManyLive(ctx context.Context, worldIDs, itemIDs []int32) (map[models.WorldItem][]models.Listing, error) {
	out := make(map[models.WorldItem][]models.Listing)
	for _, w := range worldIDs {
		for _, i := range itemIDs {
			key := models.WorldItem{WorldID: w, ItemID: i}
			group := f.data[key]
			if group == nil {
				group = []models.Listing{}
			}
			out[key] = group
		}
	}
	return out, nil
}

type fakeSales struct {
	data map[models.WorldItem][]models.Sale
}

func (f *fakeSales) Recent(ctx context.Context, key models.WorldItem, limit int) ([]models.Sale, error) {
	sales := f.data[key]
	if sales == nil {
		sales = []models.Sale{}
	}
	if limit > 0 && len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

func listing(world int32, id string, price int32) models.Listing {
	return models.Listing{ListingID: id, WorldID: world, ItemID: 5, PricePerUnit: price}
}

func newTestAggregator() *Aggregator {
	resolver := &fakeResolver{
		worlds: map[int32]string{40: "Jenova", 73: "Adamantoise"},
		dcs: map[string]models.DataCenter{
			"Aether": {Name: "Aether", Region: "North-America", WorldIDs: []int32{40, 73}},
		},
		marketable: map[int32]bool{5: true},
	}
	listings := &fakeListings{data: map[models.WorldItem][]models.Listing{
		{WorldID: 40, ItemID: 5}: {listing(40, "j1", 90), listing(40, "j2", 300)},
		{WorldID: 73, ItemID: 5}: {listing(73, "a1", 100), listing(73, "a2", 90)},
	}}
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	sales := &fakeSales{data: map[models.WorldItem][]models.Sale{
		{WorldID: 40, ItemID: 5}: {
			{WorldID: 40, ItemID: 5, PricePerUnit: 80, SoldAt: base.Add(2 * time.Hour)},
		},
		{WorldID: 73, ItemID: 5}: {
			{WorldID: 73, ItemID: 5, PricePerUnit: 95, SoldAt: base.Add(3 * time.Hour)},
			{WorldID: 73, ItemID: 5, PricePerUnit: 85, SoldAt: base.Add(time.Hour)},
		},
	}}
	return New(resolver, listings, sales, zap.NewNop())
}

func TestListingsSingleWorld(t *testing.T) {
	agg := newTestAggregator()

	view, err := agg.ResolveAndFetchListings(context.Background(), 5, "Adamantoise")
	if err != nil {
		t.Fatal(err)
	}
	if view.WorldID == nil || *view.WorldID != 73 || view.WorldName != "Adamantoise" {
		t.Fatalf("view header = %+v", view)
	}
	if view.DcName != "" {
		t.Error("single-world view must not carry a DC name")
	}
	if len(view.Listings) != 2 {
		t.Fatalf("listings = %d", len(view.Listings))
	}
	// Per-world annotations are omitted in single-world views.
	if view.Listings[0].WorldName != "" {
		t.Error("single-world listings should not repeat the world name")
	}
}

func TestListingsDataCenterMerge(t *testing.T) {
	agg := newTestAggregator()

	view, err := agg.ResolveAndFetchListings(context.Background(), 5, "Aether")
	if err != nil {
		t.Fatal(err)
	}
	if view.DcName != "Aether" || view.WorldID != nil {
		t.Fatalf("view header = %+v", view)
	}
	if len(view.Listings) != 4 {
		t.Fatalf("merged listings = %d, want 4", len(view.Listings))
	}

	// Price ascending, ties broken by listing id.
	wantOrder := []string{"a2", "j1", "a1", "j2"}
	for i, want := range wantOrder {
		if view.Listings[i].ListingID != want {
			t.Fatalf("order[%d] = %s, want %s (full: %+v)", i, view.Listings[i].ListingID, want, view.Listings)
		}
	}

	// Every merged listing names its source world.
	for _, l := range view.Listings {
		if l.WorldName == "" {
			t.Fatalf("listing %s missing world annotation", l.ListingID)
		}
	}
}

func TestListingsNotMarketable(t *testing.T) {
	agg := newTestAggregator()

	_, err := agg.ResolveAndFetchListings(context.Background(), 999, "Adamantoise")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("non-marketable item must be ErrNotFound, got %v", err)
	}
}

func TestListingsEmptyToken(t *testing.T) {
	agg := newTestAggregator()

	_, err := agg.ResolveAndFetchListings(context.Background(), 5, "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("empty token must be ErrNotFound, got %v", err)
	}
}

func TestSalesDataCenterMerge(t *testing.T) {
	agg := newTestAggregator()

	view, err := agg.ResolveAndFetchSales(context.Background(), 5, "Aether", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Entries) != 3 {
		t.Fatalf("merged sales = %d, want 3", len(view.Entries))
	}
	for i := 1; i < len(view.Entries); i++ {
		if view.Entries[i].SoldAt.After(view.Entries[i-1].SoldAt) {
			t.Fatalf("sales not newest-first at %d", i)
		}
	}

	// The limit applies to the merged result.
	view, err = agg.ResolveAndFetchSales(context.Background(), 5, "Aether", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Entries) != 2 {
		t.Fatalf("limited sales = %d, want 2", len(view.Entries))
	}
	if view.Entries[0].PricePerUnit != 95 {
		t.Errorf("newest sale = %+v", view.Entries[0])
	}
}

func TestSalesSingleWorld(t *testing.T) {
	agg := newTestAggregator()

	view, err := agg.ResolveAndFetchSales(context.Background(), 5, "Jenova", 10)
	if err != nil {
		t.Fatal(err)
	}
	if view.WorldID == nil || *view.WorldID != 40 {
		t.Fatalf("view header = %+v", view)
	}
	if len(view.Entries) != 1 {
		t.Fatalf("sales = %d", len(view.Entries))
	}
}
