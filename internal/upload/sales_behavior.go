package upload

import (
	"context"
	"time"

	"marketboard/internal/eventbus"
	"marketboard/internal/models"
)

type salesAppender interface {
	Append(ctx context.Context, key models.WorldItem, sales []models.Sale) error
}

// SalesBehavior appends uploaded sale entries to the history.
type SalesBehavior struct {
	store salesAppender
	bus   eventPublisher
}

func NewSalesBehavior(store salesAppender, bus eventPublisher) *SalesBehavior {
	return &SalesBehavior{store: store, bus: bus}
}

func (b *SalesBehavior) Name() string { return "sales" }

func (b *SalesBehavior) ShouldExecute(p *Parameters) bool {
	return p.Entries != nil && p.WorldID != nil && p.ItemID != nil
}

func (b *SalesBehavior) Execute(ctx context.Context, src *models.TrustedSource, p *Parameters) error {
	key := models.WorldItem{WorldID: *p.WorldID, ItemID: *p.ItemID}

	rows := *p.Entries
	if len(rows) == 0 {
		return nil
	}
	sales := make([]models.Sale, len(rows))
	for i, row := range rows {
		sales[i] = models.Sale{
			WorldID:      key.WorldID,
			ItemID:       key.ItemID,
			HQ:           row.HQ,
			PricePerUnit: row.PricePerUnit,
			Quantity:     row.Quantity,
			BuyerName:    row.BuyerName,
			SoldAt:       time.Unix(row.SoldAt, 0).UTC(),
		}
	}
	if err := b.store.Append(ctx, key, sales); err != nil {
		return err
	}

	if b.bus != nil {
		b.bus.Publish(eventbus.Event{
			Type:    eventbus.TypeSalesAdd,
			WorldID: key.WorldID,
			ItemID:  key.ItemID,
		})
	}
	return nil
}
