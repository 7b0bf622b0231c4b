package repository

import (
	"context"
	"fmt"
	"time"

	"marketboard/internal/models"
)

// AppendSales inserts completed sales for one (world,item) pair. The table
// is append-only; replayed rows are dropped by the dedup unique index on
// (world_id, item_id, sold_at, unit_price, quantity, buyer_name).
func (r *Repository) AppendSales(ctx context.Context, key models.WorldItem, sales []models.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	n := len(sales)
	worldIDs := make([]int32, n)
	itemIDs := make([]int32, n)
	soldAts := make([]time.Time, n)
	prices := make([]int32, n)
	quantities := make([]int32, n)
	buyers := make([]string, n)
	hqs := make([]bool, n)

	for i, s := range sales {
		worldIDs[i] = key.WorldID
		itemIDs[i] = key.ItemID
		soldAts[i] = s.SoldAt
		prices[i] = s.PricePerUnit
		quantities[i] = s.Quantity
		buyers[i] = sanitizeForPG(s.BuyerName)
		hqs[i] = s.HQ
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO sale (world_id, item_id, sold_at, unit_price, quantity, buyer_name, hq)
		SELECT u.world_id, u.item_id, u.sold_at, u.unit_price, u.quantity, u.buyer_name, u.hq
		FROM UNNEST(
			$1::int[],         -- world_id
			$2::int[],         -- item_id
			$3::timestamptz[], -- sold_at
			$4::int[],         -- unit_price
			$5::int[],         -- quantity
			$6::text[],        -- buyer_name
			$7::bool[]         -- hq
		) AS u(world_id, item_id, sold_at, unit_price, quantity, buyer_name, hq)
		ON CONFLICT (world_id, item_id, sold_at, unit_price, quantity, buyer_name) DO NOTHING
	`, worldIDs, itemIDs, soldAts, prices, quantities, buyers, hqs); err != nil {
		return fmt.Errorf("insert sales world=%d item=%d: %w", key.WorldID, key.ItemID, err)
	}
	return nil
}

// RecentSales returns up to limit sales for a pair, newest first.
func (r *Repository) RecentSales(ctx context.Context, key models.WorldItem, limit int) ([]models.Sale, error) {
	rows, err := r.db.Query(ctx, `
		SELECT world_id, item_id, hq, unit_price, quantity, buyer_name, sold_at
		FROM sale
		WHERE item_id = $1 AND world_id = $2
		ORDER BY sold_at DESC
		LIMIT $3
	`, key.ItemID, key.WorldID, limit)
	if err != nil {
		return nil, fmt.Errorf("query sales world=%d item=%d: %w", key.WorldID, key.ItemID, err)
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.WorldID, &s.ItemID, &s.HQ, &s.PricePerUnit, &s.Quantity, &s.BuyerName, &s.SoldAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}
