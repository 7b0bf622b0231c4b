package upload

import (
	"encoding/json"
	"fmt"

	"marketboard/internal/apperr"
	"marketboard/internal/models"
)

// ListingUpload is one live offer as clients report it. Timestamps arrive
// as unix seconds.
type ListingUpload struct {
	ListingID      string           `json:"listing_id"`
	HQ             bool             `json:"hq"`
	OnMannequin    bool             `json:"on_mannequin"`
	Materia        []models.Materia `json:"materia"`
	PricePerUnit   int32            `json:"price_per_unit"`
	Quantity       int32            `json:"quantity"`
	DyeID          int32            `json:"dye_id"`
	CreatorID      string           `json:"creator_id"`
	CreatorName    string           `json:"creator_name"`
	LastReviewTime int64            `json:"last_review_time"`
	RetainerID     string           `json:"retainer_id"`
	RetainerName   string           `json:"retainer_name"`
	RetainerCityID int32            `json:"retainer_city_id"`
	SellerID       string           `json:"seller_id"`
}

// SaleUpload is one completed sale as clients report it.
type SaleUpload struct {
	HQ           bool   `json:"hq"`
	PricePerUnit int32  `json:"price_per_unit"`
	Quantity     int32  `json:"quantity"`
	BuyerName    string `json:"buyer_name"`
	SoldAt       int64  `json:"sold_at"`
}

// TaxRatesUpload carries the eight city percentages; nil fields were not
// observed by the client and keep their stored values.
type TaxRatesUpload struct {
	LimsaLominsa *int32 `json:"limsa"`
	Gridania     *int32 `json:"gridania"`
	Uldah        *int32 `json:"uldah"`
	Ishgard      *int32 `json:"ishgard"`
	Kugane       *int32 `json:"kugane"`
	Crystarium   *int32 `json:"crystarium"`
	OldSharlayan *int32 `json:"old_sharlayan"`
	Tuliyollal   *int32 `json:"tuliyollal"`
}

// Parameters is the decoded upload body. Optional sections stay nil when
// absent so behaviors can tell "not sent" from "sent empty".
type Parameters struct {
	WorldID    *int32           `json:"world_id"`
	ItemID     *int32           `json:"item_id"`
	UploaderID string           `json:"uploader_id"`
	Listings   *[]ListingUpload `json:"listings"`
	Entries    *[]SaleUpload    `json:"entries"`
	TaxRates   *TaxRatesUpload  `json:"tax_rates"`

	// UploaderHash is derived by the pipeline, never read from the body.
	UploaderHash string `json:"-"`
}

// ParseParameters decodes and structurally validates an upload body.
func ParseParameters(body []byte) (*Parameters, error) {
	var p Parameters
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, apperr.BadRequest("malformed upload body")
	}

	if p.UploaderID == "" {
		return nil, apperr.BadRequest("uploader_id is required")
	}
	if p.WorldID != nil && *p.WorldID <= 0 {
		return nil, apperr.BadRequest("world_id must be positive")
	}
	if p.ItemID != nil && *p.ItemID <= 0 {
		return nil, apperr.BadRequest("item_id must be positive")
	}

	if p.Listings != nil {
		if p.WorldID == nil || p.ItemID == nil {
			return nil, apperr.BadRequest("listings require world_id and item_id")
		}
		for i, l := range *p.Listings {
			if l.ListingID == "" {
				return nil, apperr.BadRequest(fmt.Sprintf("listing %d: listing_id is required", i))
			}
			if l.PricePerUnit < 1 {
				return nil, apperr.BadRequest(fmt.Sprintf("listing %d: price_per_unit below 1", i))
			}
			if l.Quantity < 1 {
				return nil, apperr.BadRequest(fmt.Sprintf("listing %d: quantity below 1", i))
			}
		}
	}

	if p.Entries != nil {
		if p.WorldID == nil || p.ItemID == nil {
			return nil, apperr.BadRequest("entries require world_id and item_id")
		}
		for i, s := range *p.Entries {
			if s.PricePerUnit < 1 {
				return nil, apperr.BadRequest(fmt.Sprintf("entry %d: price_per_unit below 1", i))
			}
			if s.Quantity < 1 {
				return nil, apperr.BadRequest(fmt.Sprintf("entry %d: quantity below 1", i))
			}
		}
	}

	if p.TaxRates != nil && p.WorldID == nil {
		return nil, apperr.BadRequest("tax_rates require world_id")
	}

	return &p, nil
}
