// internal/domain/catalog/entity.go
package catalog

import (
	"dairy-subscription-service/internal/domain/schedule"

	"github.com/shopspring/decimal"
)

type PeriodPrice struct {
	PeriodDays      int                    `json:"period_days"`
	UnitPrice       decimal.Decimal        `json:"unit_price"`
	IsTierPrice     bool                   `json:"is_tier_price"`
	OfferedPatterns []schedule.PatternKind `json:"offered_patterns"`
}

type VariantPrices struct {
	VariantID    int64            `json:"variant_id"`
	MRP          *decimal.Decimal `json:"mrp,omitempty"`
	BuyOncePrice decimal.Decimal  `json:"buy_once_price"`
	Periods      []PeriodPrice    `json:"periods"`
	Currency     string           `json:"currency"`
}

type PriceImportResult struct {
	Received int     `json:"received"`
	Rejected int     `json:"rejected"`
	Upserted int     `json:"upserted"`
	Skipped  []int64 `json:"skipped,omitempty"`
}
