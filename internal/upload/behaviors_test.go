package upload

import (
	"context"
	"testing"

	"marketboard/internal/eventbus"
	"marketboard/internal/models"
)

type fakeListingWriter struct {
	replaced [][]models.Listing
	deleted  []models.WorldItem
}

func (w *fakeListingWriter) ReplaceLive(ctx context.Context, listings []models.Listing) error {
	w.replaced = append(w.replaced, listings)
	return nil
}

func (w *fakeListingWriter) DeleteLive(ctx context.Context, key models.WorldItem) error {
	w.deleted = append(w.deleted, key)
	return nil
}

type fakeTaxStore struct {
	stored map[int32]models.TaxRates
}

func (s *fakeTaxStore) Update(ctx context.Context, worldID int32, rates models.TaxRates) error {
	s.stored[worldID] = rates
	return nil
}

func (s *fakeTaxStore) Retrieve(ctx context.Context, worldID int32) (*models.TaxRates, error) {
	if r, ok := s.stored[worldID]; ok {
		return &r, nil
	}
	return nil, nil
}

func i32(v int32) *int32 { return &v }

func TestListingsBehaviorStampsSource(t *testing.T) {
	writer := &fakeListingWriter{}
	bus := eventbus.New()
	defer bus.Close()
	events := make(chan eventbus.Event, 1)
	bus.Subscribe(eventbus.TypeListingsAdd, events)

	b := NewListingsBehavior(writer, bus)
	p := &Parameters{
		WorldID: i32(73),
		ItemID:  i32(5),
		Listings: &[]ListingUpload{
			{ListingID: "a", PricePerUnit: 100, Quantity: 1},
		},
	}
	if !b.ShouldExecute(p) {
		t.Fatal("listings section present, behavior must execute")
	}
	if err := b.Execute(context.Background(), testSource(), p); err != nil {
		t.Fatal(err)
	}

	if len(writer.replaced) != 1 {
		t.Fatalf("replace calls = %d", len(writer.replaced))
	}
	got := writer.replaced[0][0]
	if got.Source != "test-client" {
		t.Errorf("Source = %q, want uploading application name", got.Source)
	}
	if got.WorldID != 73 || got.ItemID != 5 {
		t.Errorf("pair = %d/%d", got.WorldID, got.ItemID)
	}
	if got.Materia == nil {
		t.Error("materia must default to an empty slice")
	}

	select {
	case evt := <-events:
		if evt.WorldID != 73 || evt.ItemID != 5 {
			t.Errorf("event pair = %d/%d", evt.WorldID, evt.ItemID)
		}
	default:
		t.Error("expected a listings/add event")
	}
}

func TestListingsBehaviorEmptySliceClearsPair(t *testing.T) {
	writer := &fakeListingWriter{}
	b := NewListingsBehavior(writer, nil)

	empty := []ListingUpload{}
	p := &Parameters{WorldID: i32(73), ItemID: i32(5), Listings: &empty}
	if err := b.Execute(context.Background(), testSource(), p); err != nil {
		t.Fatal(err)
	}

	if len(writer.replaced) != 0 {
		t.Error("empty report must not insert anything")
	}
	if len(writer.deleted) != 1 || writer.deleted[0] != (models.WorldItem{WorldID: 73, ItemID: 5}) {
		t.Errorf("deleted = %v", writer.deleted)
	}
}

func TestListingsBehaviorSkipsWithoutSection(t *testing.T) {
	b := NewListingsBehavior(&fakeListingWriter{}, nil)

	if b.ShouldExecute(&Parameters{WorldID: i32(73), ItemID: i32(5)}) {
		t.Error("nil listings section must not execute")
	}
	if b.ShouldExecute(&Parameters{Listings: &[]ListingUpload{}}) {
		t.Error("missing world/item must not execute")
	}
}

func TestTaxRatesBehaviorMergesWithStored(t *testing.T) {
	store := &fakeTaxStore{stored: map[int32]models.TaxRates{
		73: {LimsaLominsa: 5, Gridania: 7, Source: "old-client"},
	}}
	b := NewTaxRatesBehavior(store)

	p := &Parameters{
		WorldID:  i32(73),
		TaxRates: &TaxRatesUpload{LimsaLominsa: i32(3), Kugane: i32(12)},
	}
	if err := b.Execute(context.Background(), testSource(), p); err != nil {
		t.Fatal(err)
	}

	got := store.stored[73]
	if got.LimsaLominsa != 3 {
		t.Errorf("uploaded field must win: limsa = %d", got.LimsaLominsa)
	}
	if got.Gridania != 7 {
		t.Errorf("omitted field must keep stored value: gridania = %d", got.Gridania)
	}
	if got.Kugane != 12 {
		t.Errorf("kugane = %d, want 12", got.Kugane)
	}
	if got.Ishgard != 0 {
		t.Errorf("never-seen field must default to zero: ishgard = %d", got.Ishgard)
	}
	if got.Source != "test-client" {
		t.Errorf("Source = %q, want the latest uploader", got.Source)
	}
}

func TestTaxRatesBehaviorNoStoredRecord(t *testing.T) {
	store := &fakeTaxStore{stored: map[int32]models.TaxRates{}}
	b := NewTaxRatesBehavior(store)

	p := &Parameters{WorldID: i32(73), TaxRates: &TaxRatesUpload{Uldah: i32(4)}}
	if err := b.Execute(context.Background(), testSource(), p); err != nil {
		t.Fatal(err)
	}

	got := store.stored[73]
	if got.Uldah != 4 || got.LimsaLominsa != 0 {
		t.Errorf("merged = %+v", got)
	}
}
