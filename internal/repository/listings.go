package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"marketboard/internal/models"
)

// sanitizeForPG removes PostgreSQL-incompatible bytes from strings:
// null bytes, raw or as a literal backslash-u0000 sequence, and invalid UTF-8.
func sanitizeForPG(s string) string {
	s = strings.ReplaceAll(s, "\\u0000", "")
	if strings.ContainsRune(s, 0) {
		s = strings.ReplaceAll(s, "\x00", "")
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return s
}

const listingColumns = `listing_id, item_id, world_id, hq, on_mannequin, materia,
		unit_price, quantity, dye_id, creator_id, creator_name, last_review_time,
		retainer_id, retainer_name, retainer_city_id, seller_id, uploaded_at, source`

// ReplaceGroup atomically replaces the live listing set for one
// (world,item) pair: delete-then-insert in a single transaction, with
// every inserted row stamped with uploadedAt. Conflicting listing_ids
// retain the existing row (idempotent replay), which means a re-upload
// does not reset uploaded_at either.
func (r *Repository) ReplaceGroup(ctx context.Context, key models.WorldItem, listings []models.Listing, uploadedAt time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace listings: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM listing WHERE world_id = $1 AND item_id = $2`,
		key.WorldID, key.ItemID); err != nil {
		return fmt.Errorf("delete listings world=%d item=%d: %w", key.WorldID, key.ItemID, err)
	}

	if len(listings) > 0 {
		n := len(listings)
		listingIDs := make([]string, n)
		itemIDs := make([]int32, n)
		worldIDs := make([]int32, n)
		hqs := make([]bool, n)
		mannequins := make([]bool, n)
		materia := make([]string, n)
		prices := make([]int32, n)
		quantities := make([]int32, n)
		dyeIDs := make([]int32, n)
		creatorIDs := make([]string, n)
		creatorNames := make([]string, n)
		reviewTimes := make([]time.Time, n)
		retainerIDs := make([]string, n)
		retainerNames := make([]string, n)
		retainerCities := make([]int32, n)
		sellerIDs := make([]string, n)
		sources := make([]string, n)

		for i, l := range listings {
			m := l.Materia
			if m == nil {
				m = []models.Materia{}
			}
			mjson, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("encode materia for listing %s: %w", l.ListingID, err)
			}
			listingIDs[i] = sanitizeForPG(l.ListingID)
			itemIDs[i] = key.ItemID
			worldIDs[i] = key.WorldID
			hqs[i] = l.HQ
			mannequins[i] = l.OnMannequin
			materia[i] = string(mjson)
			prices[i] = l.PricePerUnit
			quantities[i] = l.Quantity
			dyeIDs[i] = l.DyeID
			creatorIDs[i] = sanitizeForPG(l.CreatorID)
			creatorNames[i] = sanitizeForPG(l.CreatorName)
			reviewTimes[i] = l.LastReviewTime
			retainerIDs[i] = sanitizeForPG(l.RetainerID)
			retainerNames[i] = sanitizeForPG(l.RetainerName)
			retainerCities[i] = l.RetainerCityID
			sellerIDs[i] = sanitizeForPG(l.SellerID)
			sources[i] = sanitizeForPG(l.Source)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO listing (`+listingColumns+`)
			SELECT
				u.listing_id, u.item_id, u.world_id, u.hq, u.on_mannequin, u.materia,
				u.unit_price, u.quantity, u.dye_id, u.creator_id, u.creator_name, u.last_review_time,
				u.retainer_id, u.retainer_name, u.retainer_city_id, u.seller_id, $18::timestamptz, u.source
			FROM UNNEST(
				$1::text[],        -- listing_id
				$2::int[],         -- item_id
				$3::int[],         -- world_id
				$4::bool[],        -- hq
				$5::bool[],        -- on_mannequin
				$6::jsonb[],       -- materia
				$7::int[],         -- unit_price
				$8::int[],         -- quantity
				$9::int[],         -- dye_id
				$10::text[],       -- creator_id
				$11::text[],       -- creator_name
				$12::timestamptz[],-- last_review_time
				$13::text[],       -- retainer_id
				$14::text[],       -- retainer_name
				$15::int[],        -- retainer_city_id
				$16::text[],       -- seller_id
				$17::text[]        -- source
			) AS u(
				listing_id, item_id, world_id, hq, on_mannequin, materia,
				unit_price, quantity, dye_id, creator_id, creator_name, last_review_time,
				retainer_id, retainer_name, retainer_city_id, seller_id, source
			)
			ON CONFLICT (listing_id) DO NOTHING
		`,
			listingIDs, itemIDs, worldIDs, hqs, mannequins, materia,
			prices, quantities, dyeIDs, creatorIDs, creatorNames, reviewTimes,
			retainerIDs, retainerNames, retainerCities, sellerIDs, sources,
			uploadedAt,
		); err != nil {
			return fmt.Errorf("insert listings world=%d item=%d: %w", key.WorldID, key.ItemID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace listings world=%d item=%d: %w", key.WorldID, key.ItemID, err)
	}
	return nil
}

// DeleteGroup removes all live listings for a (world,item) pair.
func (r *Repository) DeleteGroup(ctx context.Context, key models.WorldItem) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM listing WHERE world_id = $1 AND item_id = $2`,
		key.WorldID, key.ItemID); err != nil {
		return fmt.Errorf("delete listings world=%d item=%d: %w", key.WorldID, key.ItemID, err)
	}
	return nil
}

// ListingsFor returns the live listings for a pair ordered by unit price
// ascending, ties broken by listing_id.
func (r *Repository) ListingsFor(ctx context.Context, key models.WorldItem) ([]models.Listing, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+listingColumns+`
		FROM listing
		WHERE world_id = $1 AND item_id = $2
		ORDER BY unit_price ASC, listing_id ASC
	`, key.WorldID, key.ItemID)
	if err != nil {
		return nil, fmt.Errorf("query listings world=%d item=%d: %w", key.WorldID, key.ItemID, err)
	}
	defer rows.Close()
	return scanListings(rows)
}

// ListingsForMany fetches listings for the cross product of worlds and
// items in one round trip. Every requested pair is present in the result,
// empty when no rows exist; each pair's listings are re-sorted by price.
func (r *Repository) ListingsForMany(ctx context.Context, worldIDs, itemIDs []int32) (map[models.WorldItem][]models.Listing, error) {
	out := make(map[models.WorldItem][]models.Listing, len(worldIDs)*len(itemIDs))
	for _, w := range worldIDs {
		for _, i := range itemIDs {
			out[models.WorldItem{WorldID: w, ItemID: i}] = nil
		}
	}
	if len(worldIDs) == 0 || len(itemIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+listingColumns+`
		FROM listing
		WHERE item_id = ANY($1) AND world_id = ANY($2)
	`, itemIDs, worldIDs)
	if err != nil {
		return nil, fmt.Errorf("query listings bulk: %w", err)
	}
	defer rows.Close()

	listings, err := scanListings(rows)
	if err != nil {
		return nil, err
	}
	for _, l := range listings {
		key := models.WorldItem{WorldID: l.WorldID, ItemID: l.ItemID}
		out[key] = append(out[key], l)
	}
	for key, group := range out {
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].PricePerUnit != group[j].PricePerUnit {
				return group[i].PricePerUnit < group[j].PricePerUnit
			}
			return group[i].ListingID < group[j].ListingID
		})
		out[key] = group
	}
	return out, nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanListings(rows pgxRows) ([]models.Listing, error) {
	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		var materiaJSON []byte
		if err := rows.Scan(
			&l.ListingID, &l.ItemID, &l.WorldID, &l.HQ, &l.OnMannequin, &materiaJSON,
			&l.PricePerUnit, &l.Quantity, &l.DyeID, &l.CreatorID, &l.CreatorName, &l.LastReviewTime,
			&l.RetainerID, &l.RetainerName, &l.RetainerCityID, &l.SellerID, &l.UploadedAt, &l.Source,
		); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		if len(materiaJSON) > 0 {
			if err := json.Unmarshal(materiaJSON, &l.Materia); err != nil {
				return nil, fmt.Errorf("decode materia for listing %s: %w", l.ListingID, err)
			}
		}
		if l.Materia == nil {
			l.Materia = []models.Materia{}
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}
