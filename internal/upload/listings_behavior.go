package upload

import (
	"context"
	"time"

	"marketboard/internal/eventbus"
	"marketboard/internal/models"
)

type listingWriter interface {
	ReplaceLive(ctx context.Context, listings []models.Listing) error
	DeleteLive(ctx context.Context, key models.WorldItem) error
}

type eventPublisher interface {
	Publish(evt eventbus.Event)
}

// ListingsBehavior replaces the live listing set for the uploaded pair. An
// empty listings array is an explicit "nothing on the board" report and
// clears the pair.
type ListingsBehavior struct {
	store listingWriter
	bus   eventPublisher
}

func NewListingsBehavior(store listingWriter, bus eventPublisher) *ListingsBehavior {
	return &ListingsBehavior{store: store, bus: bus}
}

func (b *ListingsBehavior) Name() string { return "listings" }

func (b *ListingsBehavior) ShouldExecute(p *Parameters) bool {
	return p.Listings != nil && p.WorldID != nil && p.ItemID != nil
}

func (b *ListingsBehavior) Execute(ctx context.Context, src *models.TrustedSource, p *Parameters) error {
	key := models.WorldItem{WorldID: *p.WorldID, ItemID: *p.ItemID}

	rows := *p.Listings
	if len(rows) == 0 {
		if err := b.store.DeleteLive(ctx, key); err != nil {
			return err
		}
	} else {
		listings := make([]models.Listing, len(rows))
		for i, row := range rows {
			materia := row.Materia
			if materia == nil {
				materia = []models.Materia{}
			}
			listings[i] = models.Listing{
				ListingID:      row.ListingID,
				WorldID:        key.WorldID,
				ItemID:         key.ItemID,
				HQ:             row.HQ,
				OnMannequin:    row.OnMannequin,
				Materia:        materia,
				PricePerUnit:   row.PricePerUnit,
				Quantity:       row.Quantity,
				DyeID:          row.DyeID,
				CreatorID:      row.CreatorID,
				CreatorName:    row.CreatorName,
				LastReviewTime: time.Unix(row.LastReviewTime, 0).UTC(),
				RetainerID:     row.RetainerID,
				RetainerName:   row.RetainerName,
				RetainerCityID: row.RetainerCityID,
				SellerID:       row.SellerID,
				Source:         src.Name,
			}
		}
		if err := b.store.ReplaceLive(ctx, listings); err != nil {
			return err
		}
	}

	if b.bus != nil {
		b.bus.Publish(eventbus.Event{
			Type:    eventbus.TypeListingsAdd,
			WorldID: key.WorldID,
			ItemID:  key.ItemID,
		})
	}
	return nil
}
