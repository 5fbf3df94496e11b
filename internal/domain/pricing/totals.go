// internal/domain/pricing/totals.go
package pricing

import (
	"github.com/shopspring/decimal"
)

// Totals is the priced outcome of one or more selections.
type Totals struct {
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Savings       decimal.Decimal `json:"savings"`
}

// ComputeTotals prices a list of per-delivery quantities at unitPrice.
// Savings are measured against mrp and never go below zero; a nil or
// non-positive mrp means no savings claim.
func ComputeTotals(quantities []int, unitPrice decimal.Decimal, mrp *decimal.Decimal) Totals {
	total := 0
	for _, q := range quantities {
		total += q
	}

	qty := decimal.NewFromInt(int64(total))
	price := qty.Mul(unitPrice)

	savings := decimal.Zero
	if list, ok := usable(mrp); ok {
		savings = decimal.Max(decimal.Zero, qty.Mul(list).Sub(price))
	}

	return Totals{
		TotalQuantity: total,
		TotalPrice:    price,
		Savings:       savings,
	}
}

// Add sums two totals. Per-selection totals are summed this way, so the order
// of accumulation does not matter.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		TotalQuantity: t.TotalQuantity + o.TotalQuantity,
		TotalPrice:    t.TotalPrice.Add(o.TotalPrice),
		Savings:       t.Savings.Add(o.Savings),
	}
}

// HasSavings reports whether a savings panel should be shown.
func (t Totals) HasSavings() bool {
	return t.Savings.IsPositive()
}

// WalletApplication is the split of a total between wallet and payable amount.
type WalletApplication struct {
	Deduction     decimal.Decimal `json:"wallet_deduction"`
	AmountPayable decimal.Decimal `json:"amount_payable"`
}

// ApplyWallet computes how much of totalPrice the wallet covers. It does not
// touch the wallet; the debit happens when the order is confirmed.
func ApplyWallet(totalPrice, balance decimal.Decimal, useWallet bool) WalletApplication {
	deduction := decimal.Zero
	if useWallet && balance.IsPositive() && totalPrice.IsPositive() {
		deduction = decimal.Min(balance, totalPrice)
	}
	return WalletApplication{
		Deduction:     deduction,
		AmountPayable: totalPrice.Sub(deduction),
	}
}
