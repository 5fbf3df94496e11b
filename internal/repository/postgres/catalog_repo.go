// internal/repository/postgres/catalog_repo.go
package postgres

import (
	"context"
	"fmt"

	"dairy-subscription-service/internal/domain/pricing"

	"github.com/jackc/pgx/v5"
)

type CatalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindPriceTables loads price tables for the given active variants. Unknown
// or inactive variants are absent from the result.
func (r *CatalogRepository) FindPriceTables(ctx context.Context, variantIDs []int64) (map[int64]pricing.PriceTable, error) {
	out := make(map[int64]pricing.PriceTable, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT v.id, p.mrp, p.buy_once_price, p.price_3_day, p.price_15_day, p.price_1_month
		FROM product_variants v
		LEFT JOIN variant_prices p ON p.variant_id = v.id
		WHERE v.id = ANY($1) AND v.is_active
	`

	rows, err := r.db.Querier(ctx).Query(ctx, query, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load price tables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pt pricing.PriceTable
		if err := rows.Scan(&pt.VariantID, &pt.MRP, &pt.BuyOncePrice, &pt.Price3Day, &pt.Price15Day, &pt.Price1Month); err != nil {
			return nil, fmt.Errorf("failed to scan price table: %w", err)
		}
		out[pt.VariantID] = pt
	}
	return out, rows.Err()
}

// UpsertPriceTables writes price tables for known variants in one batch.
// It returns the variant IDs that were skipped because no such variant exists.
func (r *CatalogRepository) UpsertPriceTables(ctx context.Context, tables []pricing.PriceTable) ([]int64, error) {
	if len(tables) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO variant_prices (variant_id, mrp, buy_once_price, price_3_day, price_15_day, price_1_month)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (SELECT 1 FROM product_variants WHERE id = $1)
		ON CONFLICT (variant_id) DO UPDATE SET
			mrp = EXCLUDED.mrp,
			buy_once_price = EXCLUDED.buy_once_price,
			price_3_day = EXCLUDED.price_3_day,
			price_15_day = EXCLUDED.price_15_day,
			price_1_month = EXCLUDED.price_1_month,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, pt := range tables {
		batch.Queue(query, pt.VariantID, pt.MRP, pt.BuyOncePrice, pt.Price3Day, pt.Price15Day, pt.Price1Month)
	}

	br := r.db.Querier(ctx).SendBatch(ctx, batch)
	defer br.Close()

	var skipped []int64
	for _, pt := range tables {
		tag, err := br.Exec()
		if err != nil {
			return nil, fmt.Errorf("failed to upsert price table for variant %d: %w", pt.VariantID, err)
		}
		if tag.RowsAffected() == 0 {
			skipped = append(skipped, pt.VariantID)
		}
	}
	return skipped, nil
}
