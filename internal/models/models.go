package models

import "time"

// Materia is a single augmentation slotted into a listing. Slot order is
// significant and must survive storage round-trips.
type Materia struct {
	SlotID    int32 `json:"slot_id"`
	MateriaID int32 `json:"materia_id"`
}

// Listing represents one row of the 'listing' table: a live market-board
// offer hosted by a retainer on a specific world.
type Listing struct {
	ListingID      string    `json:"listing_id"`
	WorldID        int32     `json:"world_id"`
	ItemID         int32     `json:"item_id"`
	HQ             bool      `json:"hq"`
	OnMannequin    bool      `json:"on_mannequin"`
	Materia        []Materia `json:"materia"` // Stored as JSONB
	PricePerUnit   int32     `json:"price_per_unit"`
	Quantity       int32     `json:"quantity"`
	DyeID          int32     `json:"dye_id"`
	CreatorID      string    `json:"creator_id"`
	CreatorName    string    `json:"creator_name"`
	LastReviewTime time.Time `json:"last_review_time"`
	RetainerID     string    `json:"retainer_id"`
	RetainerName   string    `json:"retainer_name"`
	RetainerCityID int32     `json:"retainer_city_id"`
	SellerID       string    `json:"seller_id"`
	UploadedAt     time.Time `json:"uploaded_at"`
	Source         string    `json:"source"`
}

// Sale represents one row of the append-only 'sale' table.
type Sale struct {
	WorldID      int32     `json:"world_id"`
	ItemID       int32     `json:"item_id"`
	HQ           bool      `json:"hq"`
	PricePerUnit int32     `json:"price_per_unit"`
	Quantity     int32     `json:"quantity"`
	BuyerName    string    `json:"buyer_name"`
	SoldAt       time.Time `json:"sold_at"`
}

// TaxRates holds the eight city tax percentages for one world plus the
// name of the application that uploaded them.
type TaxRates struct {
	LimsaLominsa int32  `json:"limsa_lominsa"`
	Gridania     int32  `json:"gridania"`
	Uldah        int32  `json:"uldah"`
	Ishgard      int32  `json:"ishgard"`
	Kugane       int32  `json:"kugane"`
	Crystarium   int32  `json:"crystarium"`
	OldSharlayan int32  `json:"old_sharlayan"`
	Tuliyollal   int32  `json:"tuliyollal"`
	Source       string `json:"source"`
}

// TrustedSource is an authenticated uploading application. The registry
// only ever stores the SHA-512 of its API key.
type TrustedSource struct {
	Name        string `json:"name"`
	APIKeyHash  string `json:"api_key_hash"`
	UploadCount int64  `json:"upload_count"`
}

// UploadCountHistory is the singleton rolling 30-day upload counter.
// Counts[0] is today; LastPush is the epoch-millisecond of the last
// day rollover.
type UploadCountHistory struct {
	LastPush int64   `json:"last_push"`
	Counts   []int64 `json:"counts"`
}

// World is a single game shard.
type World struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// DataCenter is a named grouping of worlds sharing market infrastructure.
type DataCenter struct {
	Name     string  `json:"name"`
	Region   string  `json:"region"`
	WorldIDs []int32 `json:"worlds"`
}

// Region is a coarse geographic grouping of data centers.
type Region struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
}

// WorldItem is the composite key every listing/sale query is scoped by.
type WorldItem struct {
	WorldID int32
	ItemID  int32
}
