package upload

import (
	"context"

	"marketboard/internal/models"
)

type taxRatesStore interface {
	Update(ctx context.Context, worldID int32, rates models.TaxRates) error
	Retrieve(ctx context.Context, worldID int32) (*models.TaxRates, error)
}

// TaxRatesBehavior merges uploaded city tax percentages with the stored
// record: an uploaded field wins, an omitted field keeps its stored value,
// and a field never seen defaults to zero.
type TaxRatesBehavior struct {
	store taxRatesStore
}

func NewTaxRatesBehavior(store taxRatesStore) *TaxRatesBehavior {
	return &TaxRatesBehavior{store: store}
}

func (b *TaxRatesBehavior) Name() string { return "tax_rates" }

func (b *TaxRatesBehavior) ShouldExecute(p *Parameters) bool {
	return p.TaxRates != nil && p.WorldID != nil
}

func (b *TaxRatesBehavior) Execute(ctx context.Context, src *models.TrustedSource, p *Parameters) error {
	existing, err := b.store.Retrieve(ctx, *p.WorldID)
	if err != nil {
		return err
	}
	if existing == nil {
		existing = &models.TaxRates{}
	}

	up := p.TaxRates
	merged := models.TaxRates{
		LimsaLominsa: pick(up.LimsaLominsa, existing.LimsaLominsa),
		Gridania:     pick(up.Gridania, existing.Gridania),
		Uldah:        pick(up.Uldah, existing.Uldah),
		Ishgard:      pick(up.Ishgard, existing.Ishgard),
		Kugane:       pick(up.Kugane, existing.Kugane),
		Crystarium:   pick(up.Crystarium, existing.Crystarium),
		OldSharlayan: pick(up.OldSharlayan, existing.OldSharlayan),
		Tuliyollal:   pick(up.Tuliyollal, existing.Tuliyollal),
		Source:       src.Name,
	}
	return b.store.Update(ctx, *p.WorldID, merged)
}

func pick(uploaded *int32, existing int32) int32 {
	if uploaded != nil {
		return *uploaded
	}
	return existing
}
