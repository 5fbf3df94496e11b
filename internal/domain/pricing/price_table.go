// internal/domain/pricing/price_table.go
package pricing

import (
	"github.com/shopspring/decimal"
)

// Period lengths, in days, that carry their own tier price.
const (
	Period3Day   = 3
	Period15Day  = 15
	Period1Month = 30
)

// PriceTable is the tiered price list of one sellable variant. Any field may
// be absent; a non-positive value counts as absent.
type PriceTable struct {
	VariantID    int64            `json:"variant_id" db:"variant_id"`
	MRP          *decimal.Decimal `json:"mrp,omitempty" db:"mrp"`
	BuyOncePrice *decimal.Decimal `json:"buy_once_price,omitempty" db:"buy_once_price"`
	Price3Day    *decimal.Decimal `json:"price_3_day,omitempty" db:"price_3_day"`
	Price15Day   *decimal.Decimal `json:"price_15_day,omitempty" db:"price_15_day"`
	Price1Month  *decimal.Decimal `json:"price_1_month,omitempty" db:"price_1_month"`
}

// Tier returns the exact tier price for a period, if one is set.
func (pt PriceTable) Tier(periodDays int) (decimal.Decimal, bool) {
	var tier *decimal.Decimal
	switch periodDays {
	case Period3Day:
		tier = pt.Price3Day
	case Period15Day:
		tier = pt.Price15Day
	case Period1Month:
		tier = pt.Price1Month
	}
	return usable(tier)
}

// ListPrice returns the MRP if one is set. It is only ever used for savings.
func (pt PriceTable) ListPrice() (decimal.Decimal, bool) {
	return usable(pt.MRP)
}

func usable(p *decimal.Decimal) (decimal.Decimal, bool) {
	if p == nil || !p.IsPositive() {
		return decimal.Zero, false
	}
	return *p, true
}

// ResolveUnitPrice picks the subscription unit price for a period: the exact
// tier, else the buy-once price, else MRP, else zero.
func ResolveUnitPrice(pt PriceTable, periodDays int) decimal.Decimal {
	if price, ok := pt.Tier(periodDays); ok {
		return price
	}
	return ResolveBuyOncePrice(pt)
}

// ResolveBuyOncePrice picks the one-time purchase price: buy-once, else MRP, else zero.
func ResolveBuyOncePrice(pt PriceTable) decimal.Decimal {
	if price, ok := usable(pt.BuyOncePrice); ok {
		return price
	}
	if price, ok := usable(pt.MRP); ok {
		return price
	}
	return decimal.Zero
}
