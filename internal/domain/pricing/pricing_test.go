package pricing

import (
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) *decimal.Decimal {
	return lo.ToPtr(decimal.NewFromInt(v))
}

func TestResolveUnitPrice(t *testing.T) {
	full := PriceTable{
		MRP:          d(60),
		BuyOncePrice: d(55),
		Price3Day:    d(54),
		Price15Day:   d(50),
		Price1Month:  d(48),
	}

	tests := []struct {
		name   string
		table  PriceTable
		period int
		want   decimal.Decimal
	}{
		{"3 day tier", full, 3, decimal.NewFromInt(54)},
		{"15 day tier", full, 15, decimal.NewFromInt(50)},
		{"1 month tier", full, 30, decimal.NewFromInt(48)},
		{"untiered period falls back to buy once", full, 7, decimal.NewFromInt(55)},
		{"missing 15 day tier falls back to buy once", PriceTable{MRP: d(60), BuyOncePrice: d(50)}, 15, decimal.NewFromInt(50)},
		{"zero tier is absent", PriceTable{BuyOncePrice: d(50), Price15Day: d(0)}, 15, decimal.NewFromInt(50)},
		{"negative tier is absent", PriceTable{BuyOncePrice: d(50), Price1Month: d(-5)}, 30, decimal.NewFromInt(50)},
		{"falls back to mrp", PriceTable{MRP: d(60)}, 30, decimal.NewFromInt(60)},
		{"nothing set", PriceTable{}, 3, decimal.Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveUnitPrice(tt.table, tt.period)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestResolveBuyOncePrice(t *testing.T) {
	assert.True(t, decimal.NewFromInt(55).Equal(ResolveBuyOncePrice(PriceTable{MRP: d(60), BuyOncePrice: d(55), Price3Day: d(40)})))
	assert.True(t, decimal.NewFromInt(60).Equal(ResolveBuyOncePrice(PriceTable{MRP: d(60)})))
	assert.True(t, decimal.Zero.Equal(ResolveBuyOncePrice(PriceTable{})))
}

func TestComputeTotals_Savings(t *testing.T) {
	qty := []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

	got := ComputeTotals(qty, decimal.NewFromInt(50), d(60))
	assert.Equal(t, 10, got.TotalQuantity)
	assert.True(t, decimal.NewFromInt(500).Equal(got.TotalPrice))
	assert.True(t, decimal.NewFromInt(100).Equal(got.Savings))
	assert.True(t, got.HasSavings())

	got = ComputeTotals(qty, decimal.NewFromInt(50), d(40))
	assert.True(t, decimal.Zero.Equal(got.Savings))
	assert.False(t, got.HasSavings())

	got = ComputeTotals(qty, decimal.NewFromInt(50), d(50))
	assert.False(t, got.HasSavings())

	got = ComputeTotals(qty, decimal.NewFromInt(50), nil)
	assert.False(t, got.HasSavings())
}

func TestComputeTotals_DualQuantities(t *testing.T) {
	qty := make([]int, 30)
	for i := range qty {
		qty[i] = lo.Ternary(i%2 == 0, 2, 1)
	}

	got := ComputeTotals(qty, decimal.RequireFromString("27.5"), nil)
	assert.Equal(t, 45, got.TotalQuantity)
	assert.True(t, decimal.RequireFromString("1237.5").Equal(got.TotalPrice))
}

func TestComputeTotals_Empty(t *testing.T) {
	got := ComputeTotals(nil, decimal.NewFromInt(50), d(60))
	assert.Equal(t, 0, got.TotalQuantity)
	assert.True(t, got.TotalPrice.IsZero())
	assert.True(t, got.Savings.IsZero())
}

func TestTotals_AddIsOrderIndependent(t *testing.T) {
	a := ComputeTotals([]int{2, 1, 2, 1}, decimal.RequireFromString("24.75"), d(30))
	b := ComputeTotals([]int{1, 1, 1}, decimal.NewFromInt(60), d(55))
	c := ComputeTotals([]int{3, 3}, decimal.RequireFromString("12.10"), nil)

	left := a.Add(b).Add(c)
	right := a.Add(b.Add(c))
	reversed := c.Add(b).Add(a)

	for _, got := range []Totals{right, reversed} {
		assert.Equal(t, left.TotalQuantity, got.TotalQuantity)
		assert.True(t, left.TotalPrice.Equal(got.TotalPrice))
		assert.True(t, left.Savings.Equal(got.Savings))
	}

	// Pricing the same selection in one batch or in chunks agrees.
	batch := ComputeTotals([]int{2, 1, 2, 1, 2, 1}, decimal.NewFromInt(25), d(30))
	chunked := ComputeTotals([]int{2, 1}, decimal.NewFromInt(25), d(30)).
		Add(ComputeTotals([]int{2, 1, 2, 1}, decimal.NewFromInt(25), d(30)))
	assert.Equal(t, batch.TotalQuantity, chunked.TotalQuantity)
	assert.True(t, batch.TotalPrice.Equal(chunked.TotalPrice))
	assert.True(t, batch.Savings.Equal(chunked.Savings))
}

func TestApplyWallet(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		balance   int64
		useWallet bool
		deduction int64
		payable   int64
	}{
		{"partial cover", 200, 80, true, 80, 120},
		{"opted out", 200, 80, false, 0, 200},
		{"balance exceeds total", 200, 500, true, 200, 0},
		{"empty wallet", 200, 0, true, 0, 200},
		{"negative balance", 200, -20, true, 0, 200},
		{"nothing to pay", 0, 80, true, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyWallet(decimal.NewFromInt(tt.total), decimal.NewFromInt(tt.balance), tt.useWallet)
			assert.True(t, decimal.NewFromInt(tt.deduction).Equal(got.Deduction), "deduction %s", got.Deduction)
			assert.True(t, decimal.NewFromInt(tt.payable).Equal(got.AmountPayable), "payable %s", got.AmountPayable)
		})
	}
}
