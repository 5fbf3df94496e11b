package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"dairy-subscription-service/internal/config"
	"dairy-subscription-service/internal/domain/delivery"
	"dairy-subscription-service/internal/domain/pricing"
	"dairy-subscription-service/internal/domain/schedule"
	"dairy-subscription-service/internal/domain/subscription"
	"dairy-subscription-service/internal/domain/wallet"
	"dairy-subscription-service/internal/metrics"
	xerrors "dairy-subscription-service/internal/pkg/errors"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// store is an in-memory stand-in for every collaborator. WithTx snapshots
// state and restores it when fn fails.
type store struct {
	subs     []*subscription.Subscription
	entries  []delivery.Entry
	debits   []wallet.Transaction
	tables   map[int64]pricing.PriceTable
	balance  decimal.Decimal
	priceErr error
	debitErr error
	nextID   int64
}

func (s *store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	subs, entries, debits := len(s.subs), len(s.entries), len(s.debits)
	if err := fn(ctx); err != nil {
		s.subs, s.entries, s.debits = s.subs[:subs], s.entries[:entries], s.debits[:debits]
		return err
	}
	return nil
}

func (s *store) Create(_ context.Context, sub *subscription.Subscription) error {
	s.nextID++
	sub.ID = s.nextID
	s.subs = append(s.subs, sub)
	return nil
}

func (s *store) FindByID(_ context.Context, id int64) (*subscription.Subscription, error) {
	for _, sub := range s.subs {
		if sub.ID == id {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, xerrors.New("missing").Mark(xerrors.ErrNotFound)
}

func (s *store) ListByCustomer(_ context.Context, customerID int64, _ *subscription.SubscriptionListFilters) ([]subscription.Subscription, int64, error) {
	var out []subscription.Subscription
	for _, sub := range s.subs {
		if sub.CustomerID == customerID {
			out = append(out, *sub)
		}
	}
	return out, int64(len(out)), nil
}

func (s *store) UpdatePaymentStatusByCheckout(_ context.Context, ref string, from, to subscription.PaymentStatus) (int64, error) {
	var n int64
	for _, sub := range s.subs {
		if sub.CheckoutReference == ref && sub.PaymentStatus == from {
			sub.PaymentStatus = to
			n++
		}
	}
	return n, nil
}

func (s *store) BulkInsert(_ context.Context, entries []delivery.Entry) error {
	for _, e := range entries {
		s.nextID++
		e.ID = s.nextID
		s.entries = append(s.entries, e)
	}
	return nil
}

func (s *store) ListBySubscription(_ context.Context, id int64) ([]delivery.Entry, error) {
	return lo.Filter(s.entries, func(e delivery.Entry, _ int) bool { return e.SubscriptionID == id }), nil
}

func (s *store) FindPriceTables(_ context.Context, ids []int64) (map[int64]pricing.PriceTable, error) {
	if s.priceErr != nil {
		return nil, s.priceErr
	}
	out := map[int64]pricing.PriceTable{}
	for _, id := range ids {
		if pt, ok := s.tables[id]; ok {
			out[id] = pt
		}
	}
	return out, nil
}

func (s *store) GetBalance(context.Context, int64) (decimal.Decimal, error) {
	return s.balance, nil
}

func (s *store) Debit(_ context.Context, txn *wallet.Transaction) error {
	if s.debitErr != nil {
		return s.debitErr
	}
	s.balance = s.balance.Sub(txn.Amount)
	s.debits = append(s.debits, *txn)
	return nil
}

func dec(v string) *decimal.Decimal {
	return lo.ToPtr(decimal.RequireFromString(v))
}

const (
	milk   = int64(11)
	curd   = int64(12)
	ghee   = int64(13)
	custID = int64(501)
)

func newStore() *store {
	return &store{
		tables: map[int64]pricing.PriceTable{
			milk: {VariantID: milk, MRP: dec("60"), BuyOncePrice: dec("55"), Price3Day: dec("54"), Price15Day: dec("50"), Price1Month: dec("48")},
			curd: {VariantID: curd, MRP: dec("30"), BuyOncePrice: dec("27.5")},
			ghee: {VariantID: ghee, BuyOncePrice: dec("500")},
		},
		balance: decimal.NewFromInt(200),
	}
}

func newService(st *store) *SubscriptionService {
	svc := NewSubscriptionService(st, st, st, st, st, config.BusinessConfig{
		Timezone:    time.UTC,
		MinLeadDays: 2,
		Periods:     schedule.DefaultPeriods,
		Currency:    "INR",
	}, metrics.Nop{}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC) }
	return svc
}

func checkout(period int, sels ...subscription.SelectionRequest) *subscription.CheckoutRequest {
	return &subscription.CheckoutRequest{
		Selections:        sels,
		PeriodDays:        period,
		StartDate:         "2026-10-20",
		DeliveryAddressID: 9,
	}
}

func TestQuote_DailyMonthWithWallet(t *testing.T) {
	svc := newService(newStore())
	req := checkout(30, subscription.SelectionRequest{VariantID: milk, Quantity: 1, Pattern: schedule.KindDaily})
	req.UseWallet = true

	q, err := svc.Quote(context.Background(), custID, req)
	require.NoError(t, err)

	require.Len(t, q.Lines, 1)
	line := q.Lines[0]
	assert.Equal(t, 30, line.DeliveryCount)
	assert.True(t, decimal.NewFromInt(48).Equal(line.UnitPrice))
	assert.Equal(t, "1 unit every day", line.DeliveryDescription)

	assert.Equal(t, 30, q.TotalQuantity)
	assert.True(t, decimal.NewFromInt(1440).Equal(q.TotalPrice))
	assert.True(t, decimal.NewFromInt(360).Equal(q.Savings))
	assert.True(t, decimal.NewFromInt(200).Equal(q.Deduction))
	assert.True(t, decimal.NewFromInt(1240).Equal(q.AmountPayable))
	assert.Equal(t, time.Date(2026, time.November, 18, 0, 0, 0, 0, time.UTC), q.EndDate)
}

func TestQuote_Day1Day2FallsBackToBuyOncePrice(t *testing.T) {
	svc := newService(newStore())
	req := checkout(30, subscription.SelectionRequest{VariantID: curd, Quantity: 2, AltQuantity: lo.ToPtr(1), Pattern: schedule.KindDay1Day2})

	q, err := svc.Quote(context.Background(), custID, req)
	require.NoError(t, err)

	assert.Equal(t, 45, q.TotalQuantity)
	assert.True(t, decimal.RequireFromString("1237.5").Equal(q.TotalPrice))
	assert.True(t, decimal.RequireFromString("112.5").Equal(q.Savings))
	assert.Equal(t, 1, *q.Lines[0].AltQuantity)
	assert.True(t, q.Deduction.IsZero())
}

func TestQuote_MultipleSelectionsSumLines(t *testing.T) {
	svc := newService(newStore())
	req := checkout(15,
		subscription.SelectionRequest{VariantID: milk, Quantity: 1, Pattern: schedule.KindAlternateDays},
		subscription.SelectionRequest{VariantID: ghee, Quantity: 1, Pattern: schedule.KindSelectDays, Weekdays: []int{1, 3, 5}},
	)

	q, err := svc.Quote(context.Background(), custID, req)
	require.NoError(t, err)

	sum := pricing.Totals{}
	for _, l := range q.Lines {
		sum = sum.Add(l.Totals)
	}
	assert.Equal(t, sum.TotalQuantity, q.TotalQuantity)
	assert.True(t, sum.TotalPrice.Equal(q.TotalPrice))
	assert.Equal(t, 8, q.Lines[0].DeliveryCount)
	// 2026-10-20 is a Tuesday; the window holds two of each selected day.
	assert.Equal(t, 6, q.Lines[1].DeliveryCount)
	assert.Contains(t, q.DeliveryDescription, "every alternate day")
}

func TestQuote_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *subscription.CheckoutRequest)
		sentinel error
	}{
		{"period not offered", func(r *subscription.CheckoutRequest) { r.PeriodDays = 7 }, xerrors.ErrValidation},
		{"start inside lead time", func(r *subscription.CheckoutRequest) { r.StartDate = "2026-10-19" }, xerrors.ErrValidation},
		{"start missing", func(r *subscription.CheckoutRequest) { r.StartDate = "" }, xerrors.ErrValidation},
		{"zero quantity", func(r *subscription.CheckoutRequest) { r.Selections[0].Quantity = 0 }, xerrors.ErrValidation},
		{"alternate on 3 days", func(r *subscription.CheckoutRequest) {
			r.PeriodDays = 3
			r.Selections[0].Pattern = schedule.KindAlternateDays
		}, xerrors.ErrPolicy},
		{"too few weekdays", func(r *subscription.CheckoutRequest) {
			r.Selections[0].Pattern = schedule.KindSelectDays
			r.Selections[0].Weekdays = []int{1, 2}
		}, xerrors.ErrValidation},
		{"missing pattern", func(r *subscription.CheckoutRequest) { r.Selections[0].Pattern = "" }, xerrors.ErrValidation},
		{"quantity above limit", func(r *subscription.CheckoutRequest) { r.Selections[0].Quantity = schedule.MaxQuantity + 1 }, xerrors.ErrValidation},
		{"unknown variant", func(r *subscription.CheckoutRequest) { r.Selections[0].VariantID = 999 }, xerrors.ErrNotFound},
		{"duplicate variant", func(r *subscription.CheckoutRequest) {
			r.Selections = append(r.Selections, r.Selections[0])
		}, xerrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := checkout(30, subscription.SelectionRequest{VariantID: milk, Quantity: 1, Pattern: schedule.KindDaily})
			tt.mutate(req)

			_, err := newService(newStore()).Quote(context.Background(), custID, req)
			require.Error(t, err)
			assert.True(t, xerrors.Is(err, tt.sentinel), "got %v", err)
		})
	}
}

func TestQuote_AdjustPatternDowngradesToDaily(t *testing.T) {
	req := checkout(3, subscription.SelectionRequest{VariantID: curd, Quantity: 2, AltQuantity: lo.ToPtr(1), Pattern: schedule.KindDay1Day2})
	req.AdjustPattern = true

	q, err := newService(newStore()).Quote(context.Background(), custID, req)
	require.NoError(t, err)

	line := q.Lines[0]
	assert.True(t, line.PatternAdjusted)
	assert.Equal(t, schedule.KindDaily, line.Pattern)
	assert.Nil(t, line.AltQuantity)
	assert.Equal(t, 6, q.TotalQuantity)
}

func TestQuote_CollaboratorFailureIsRetryable(t *testing.T) {
	st := newStore()
	st.priceErr = errors.New("connection refused")

	_, err := newService(st).Quote(context.Background(), custID,
		checkout(30, subscription.SelectionRequest{VariantID: milk, Quantity: 1, Pattern: schedule.KindDaily}))
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrUnavailable))
}

func TestConfirm_PersistsSubscriptionsEntriesAndDebit(t *testing.T) {
	st := newStore()
	svc := newService(st)
	req := checkout(15,
		subscription.SelectionRequest{VariantID: milk, Quantity: 1, Pattern: schedule.KindDaily},
		subscription.SelectionRequest{VariantID: ghee, Quantity: 1, Pattern: schedule.KindSelectDays, Weekdays: []int{5, 1, 3}},
	)
	req.UseWallet = true

	conf, err := svc.Confirm(context.Background(), custID, req)
	require.NoError(t, err)

	require.Len(t, conf.Subscriptions, 2)
	assert.Equal(t, int64(9), conf.DeliveryAddressID)
	assert.True(t, decimal.NewFromInt(200).Equal(conf.WalletAmount))
	assert.Equal(t, subscription.PaymentStatusPending, conf.PaymentStatus)

	first := conf.Subscriptions[0]
	assert.Equal(t, milk, first.VariantID)
	assert.Equal(t, 15, first.Period)
	assert.Equal(t, "2026-10-20", first.StartDate)
	assert.Equal(t, schedule.KindDaily, first.DeliverySchedule)
	assert.Nil(t, first.Weekdays)
	assert.Equal(t, []int{1, 3, 5}, conf.Subscriptions[1].Weekdays)

	require.Len(t, st.subs, 2)
	assert.Len(t, st.entries, 15+6)
	for _, e := range st.entries {
		assert.Equal(t, delivery.StatusPending, e.Status)
		assert.Equal(t, custID, e.CustomerID)
	}

	// The wallet share is allocated to lines in order.
	assert.True(t, decimal.NewFromInt(200).Equal(st.subs[0].WalletAmount))
	assert.True(t, decimal.NewFromInt(550).Equal(st.subs[0].AmountPayable))
	assert.True(t, st.subs[1].WalletAmount.IsZero())

	require.Len(t, st.debits, 1)
	assert.True(t, decimal.NewFromInt(200).Equal(st.debits[0].Amount))
	assert.Equal(t, "checkout:"+conf.CheckoutReference, st.debits[0].Reference)
	assert.True(t, st.balance.IsZero())
}

func TestConfirm_FullyWalletFundedIsPaid(t *testing.T) {
	st := newStore()
	st.balance = decimal.NewFromInt(1000)
	req := checkout(3, subscription.SelectionRequest{VariantID: milk, Quantity: 1, Pattern: schedule.KindDaily})
	req.UseWallet = true

	conf, err := newService(st).Confirm(context.Background(), custID, req)
	require.NoError(t, err)

	assert.True(t, conf.AmountPayable.IsZero())
	assert.Equal(t, subscription.PaymentStatusPaid, conf.PaymentStatus)
	assert.Equal(t, subscription.PaymentStatusPaid, st.subs[0].PaymentStatus)
}

func TestConfirm_DebitFailureLeavesNothing(t *testing.T) {
	st := newStore()
	st.debitErr = xerrors.New("balance changed").Mark(xerrors.ErrConflict)
	req := checkout(30, subscription.SelectionRequest{VariantID: milk, Quantity: 1, Pattern: schedule.KindDaily})
	req.UseWallet = true

	_, err := newService(st).Confirm(context.Background(), custID, req)
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrConflict))
	assert.Empty(t, st.subs)
	assert.Empty(t, st.entries)
}

func TestConfirm_OversizedDay2QuantityIsRejected(t *testing.T) {
	st := newStore()
	req := checkout(30, subscription.SelectionRequest{
		VariantID:   curd,
		Quantity:    2,
		AltQuantity: lo.ToPtr(1<<32 + 1),
		Pattern:     schedule.KindDay1Day2,
	})

	_, err := newService(st).Confirm(context.Background(), custID, req)
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrValidation), "got %v", err)
	assert.False(t, xerrors.Is(err, xerrors.ErrUnavailable))
	assert.Empty(t, st.subs)
	assert.Empty(t, st.entries)
}

func TestGetSubscription_ScopesToCustomerAndLabelsToday(t *testing.T) {
	st := newStore()
	svc := newService(st)
	conf, err := svc.Confirm(context.Background(), custID,
		checkout(3, subscription.SelectionRequest{VariantID: milk, Quantity: 1, Pattern: schedule.KindDaily}))
	require.NoError(t, err)
	id := conf.Subscriptions[0].ID

	_, err = svc.GetSubscription(context.Background(), custID+1, id)
	assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))

	svc.now = func() time.Time { return time.Date(2026, time.October, 21, 8, 0, 0, 0, time.UTC) }
	sub, err := svc.GetSubscription(context.Background(), custID, id)
	require.NoError(t, err)
	require.Len(t, sub.Deliveries, 3)
	assert.Equal(t, delivery.DisplayLabel(delivery.StatusPending), sub.Deliveries[0].Display)
	assert.Equal(t, delivery.LabelScheduled, sub.Deliveries[1].Display)
	assert.Equal(t, delivery.StatusPending, sub.Deliveries[1].Status)
}

func TestMarkCheckoutPaid(t *testing.T) {
	st := newStore()
	svc := newService(st)
	conf, err := svc.Confirm(context.Background(), custID,
		checkout(3, subscription.SelectionRequest{VariantID: milk, Quantity: 1, Pattern: schedule.KindDaily}))
	require.NoError(t, err)

	require.NoError(t, svc.MarkCheckoutPaid(context.Background(), conf.CheckoutReference))
	assert.Equal(t, subscription.PaymentStatusPaid, st.subs[0].PaymentStatus)

	err = svc.MarkCheckoutPaid(context.Background(), conf.CheckoutReference)
	assert.True(t, xerrors.Is(err, xerrors.ErrConflict))
}

func TestBuyOnceQuote(t *testing.T) {
	req := &subscription.BuyOnceRequest{
		Items:     []subscription.BuyOnceItem{{VariantID: milk, Quantity: 2}, {VariantID: ghee, Quantity: 1}},
		UseWallet: true,
	}

	q, err := newService(newStore()).BuyOnceQuote(context.Background(), custID, req)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(55).Equal(q.Lines[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(10).Equal(q.Lines[0].Savings))
	assert.True(t, decimal.NewFromInt(610).Equal(q.TotalPrice))
	assert.True(t, decimal.NewFromInt(200).Equal(q.Deduction))
	assert.True(t, decimal.NewFromInt(410).Equal(q.AmountPayable))
}
