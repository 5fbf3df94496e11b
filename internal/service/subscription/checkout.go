// internal/service/subscription/checkout.go
package subscription

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"dairy-subscription-service/internal/domain/delivery"
	"dairy-subscription-service/internal/domain/pricing"
	"dairy-subscription-service/internal/domain/schedule"
	"dairy-subscription-service/internal/domain/subscription"
	"dairy-subscription-service/internal/domain/wallet"
	xerrors "dairy-subscription-service/internal/pkg/errors"
	"dairy-subscription-service/internal/pkg/validator"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// pricedLine is one selection resolved against its schedule and price table.
type pricedLine struct {
	selection subscription.SelectionRequest
	pattern   schedule.Pattern
	qty       schedule.Quantities
	adjusted  bool
	plan      []schedule.PlannedDelivery
	unitPrice decimal.Decimal
	mrp       *decimal.Decimal
	totals    pricing.Totals
}

type pricedCheckout struct {
	start   time.Time
	end     time.Time
	lines   []pricedLine
	totals  pricing.Totals
	balance decimal.Decimal
	wallet  pricing.WalletApplication
}

// Quote prices a checkout without persisting anything.
func (s *SubscriptionService) Quote(ctx context.Context, customerID int64, req *subscription.CheckoutRequest) (*subscription.Quote, error) {
	priced, err := s.price(ctx, customerID, req)
	if err != nil {
		return nil, err
	}
	s.metrics.IncQuote("subscription")

	quote := &subscription.Quote{
		Lines:             make([]subscription.QuoteLine, len(priced.lines)),
		StartDate:         priced.start,
		EndDate:           priced.end,
		Currency:          s.business.Currency,
		Totals:            priced.totals,
		WalletBalance:     priced.balance,
		WalletApplication: priced.wallet,
	}
	descriptions := make([]string, len(priced.lines))
	for i, l := range priced.lines {
		quote.Lines[i] = l.quoteLine(req.PeriodDays)
		descriptions[i] = quote.Lines[i].DeliveryDescription
	}
	quote.DeliveryDescription = strings.Join(descriptions, "; ")

	return quote, nil
}

// Confirm prices the checkout again and persists one subscription per
// selection with all of its delivery entries and the wallet debit, atomically.
func (s *SubscriptionService) Confirm(ctx context.Context, customerID int64, req *subscription.CheckoutRequest) (*subscription.Confirmation, error) {
	priced, err := s.price(ctx, customerID, req)
	if err != nil {
		return nil, err
	}

	for _, l := range priced.lines {
		if len(l.plan) == 0 {
			return nil, xerrors.Newf("variant %d has no delivery days", l.selection.VariantID).
				WithHint("no selected weekday falls inside the subscription period").
				Mark(xerrors.ErrValidation)
		}
	}

	checkoutRef := "CHK-" + ulid.Make().String()
	walletLeft := priced.wallet.Deduction
	subs := make([]*subscription.Subscription, len(priced.lines))

	for i, l := range priced.lines {
		share := decimal.Min(walletLeft, l.totals.TotalPrice)
		walletLeft = walletLeft.Sub(share)
		payable := l.totals.TotalPrice.Sub(share)

		sub := &subscription.Subscription{
			SubscriptionReference: "SUB-" + ulid.Make().String(),
			CheckoutReference:     checkoutRef,
			CustomerID:            customerID,
			VariantID:             l.selection.VariantID,
			DeliveryAddressID:     req.DeliveryAddressID,
			PeriodDays:            req.PeriodDays,
			Pattern:               l.pattern.Kind(),
			Quantity:              l.qty.Primary,
			StartDate:             priced.start,
			EndDate:               priced.end,
			DeliveryCount:         len(l.plan),
			TotalQuantity:         l.totals.TotalQuantity,
			UnitPrice:             l.unitPrice,
			TotalAmount:           l.totals.TotalPrice,
			Savings:               l.totals.Savings,
			WalletAmount:          share,
			AmountPayable:         payable,
			Currency:              s.business.Currency,
			PaymentStatus:         subscription.PaymentStatusPending,
		}
		if l.pattern.Kind() == schedule.KindDay1Day2 {
			sub.AltQuantity = sql.NullInt32{Int32: int32(l.qty.Secondary), Valid: true}
		}
		if days := schedule.WeekdayNumbers(l.pattern); days != nil {
			sub.Weekdays = lo.Map(days, func(d int, _ int) int32 { return int32(d) })
		}
		if l.mrp != nil {
			sub.MRP = decimal.NewNullDecimal(*l.mrp)
		}
		subs[i] = sub
	}

	// Nothing left to collect: the wallet covered the whole checkout.
	if priced.wallet.AmountPayable.IsZero() {
		for _, sub := range subs {
			sub.PaymentStatus = subscription.PaymentStatusPaid
		}
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		for i, sub := range subs {
			if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
				return err
			}
			if err := s.entryRepo.BulkInsert(ctx, entriesFor(sub, priced.lines[i].plan)); err != nil {
				return err
			}
		}

		if priced.wallet.Deduction.IsPositive() {
			return s.wallets.Debit(ctx, &wallet.Transaction{
				CustomerID:      customerID,
				TransactionType: wallet.TransactionCheckoutDebit,
				Amount:          priced.wallet.Deduction,
				Reference:       "checkout:" + checkoutRef,
			})
		}
		return nil
	})
	if err != nil {
		s.logger.Error("checkout confirmation failed",
			zap.Error(err),
			zap.Int64("customer_id", customerID),
			zap.String("checkout_reference", checkoutRef),
		)
		return nil, unavailable(err, "confirm checkout")
	}

	conf := &subscription.Confirmation{
		CheckoutReference: checkoutRef,
		Subscriptions:     make([]subscription.ConfirmedSubscription, len(subs)),
		DeliveryAddressID: req.DeliveryAddressID,
		WalletAmount:      priced.wallet.Deduction,
		AmountPayable:     priced.wallet.AmountPayable,
		PaymentStatus:     subs[0].PaymentStatus,
	}
	for i, sub := range subs {
		conf.Subscriptions[i] = confirmed(sub)
		s.metrics.IncCheckoutConfirmed(sub.PeriodDays, string(sub.Pattern))
	}
	total, _ := priced.totals.TotalPrice.Float64()
	s.metrics.ObserveCheckoutAmount(total, s.business.Currency)

	s.logger.Info("checkout confirmed",
		zap.String("checkout_reference", checkoutRef),
		zap.Int64("customer_id", customerID),
		zap.Int("subscriptions", len(subs)),
		zap.String("total_price", priced.totals.TotalPrice.String()),
		zap.String("wallet_amount", priced.wallet.Deduction.String()),
	)

	return conf, nil
}

// BuyOnceQuote prices a one-time purchase at the buy-once price.
func (s *SubscriptionService) BuyOnceQuote(ctx context.Context, customerID int64, req *subscription.BuyOnceRequest) (*subscription.BuyOnceQuote, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	ids := lo.Uniq(lo.Map(req.Items, func(it subscription.BuyOnceItem, _ int) int64 { return it.VariantID }))
	tables, balance, err := s.collaborators(ctx, customerID, ids)
	if err != nil {
		return nil, err
	}

	quote := &subscription.BuyOnceQuote{
		Lines:         make([]subscription.BuyOnceLine, len(req.Items)),
		Currency:      s.business.Currency,
		WalletBalance: balance,
	}
	for i, it := range req.Items {
		pt, ok := tables[it.VariantID]
		if !ok {
			return nil, variantUnavailable(it.VariantID)
		}
		unit := pricing.ResolveBuyOncePrice(pt)
		mrp := listPrice(pt)
		line := subscription.BuyOnceLine{
			VariantID: it.VariantID,
			UnitPrice: unit,
			MRP:       mrp,
			Totals:    pricing.ComputeTotals([]int{it.Quantity}, unit, mrp),
		}
		quote.Lines[i] = line
		quote.Totals = quote.Totals.Add(line.Totals)
	}
	quote.WalletApplication = pricing.ApplyWallet(quote.TotalPrice, balance, req.UseWallet)
	s.metrics.IncQuote("buy_once")

	return quote, nil
}

// price validates the request against the storefront rules, fetches every
// collaborator concurrently and runs the engine.
func (s *SubscriptionService) price(ctx context.Context, customerID int64, req *subscription.CheckoutRequest) (*pricedCheckout, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := schedule.CheckPeriod(req.PeriodDays, s.business.Periods); err != nil {
		return nil, err
	}

	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		return nil, xerrors.WithError(err).
			WithHint("start_date must be YYYY-MM-DD").
			Mark(xerrors.ErrValidation)
	}
	if err := schedule.CheckStartDate(start, s.today(), s.business.MinLeadDays); err != nil {
		return nil, err
	}

	if dups := lo.FindDuplicatesBy(req.Selections, func(sel subscription.SelectionRequest) int64 { return sel.VariantID }); len(dups) > 0 {
		return nil, xerrors.Newf("variant %d selected more than once", dups[0].VariantID).
			WithHint("combine quantities for the same variant into one selection").
			Mark(xerrors.ErrValidation)
	}

	lines := make([]pricedLine, len(req.Selections))
	for i, sel := range req.Selections {
		line, err := s.plan(sel, start, req.PeriodDays, req.AdjustPattern)
		if err != nil {
			return nil, err
		}
		lines[i] = line
	}

	ids := lo.Map(req.Selections, func(sel subscription.SelectionRequest, _ int) int64 { return sel.VariantID })
	tables, balance, err := s.collaborators(ctx, customerID, ids)
	if err != nil {
		return nil, err
	}

	out := &pricedCheckout{
		start:   schedule.DateOf(start),
		end:     schedule.EndDate(start, req.PeriodDays),
		lines:   lines,
		balance: balance,
	}
	for i := range out.lines {
		l := &out.lines[i]
		pt, ok := tables[l.selection.VariantID]
		if !ok {
			return nil, variantUnavailable(l.selection.VariantID)
		}
		l.unitPrice = pricing.ResolveUnitPrice(pt, req.PeriodDays)
		l.mrp = listPrice(pt)
		l.totals = pricing.ComputeTotals(schedule.PlanQuantities(l.plan), l.unitPrice, l.mrp)
		out.totals = out.totals.Add(l.totals)
	}
	out.wallet = pricing.ApplyWallet(out.totals.TotalPrice, balance, req.UseWallet)

	return out, nil
}

func (s *SubscriptionService) plan(sel subscription.SelectionRequest, start time.Time, periodDays int, adjust bool) (pricedLine, error) {
	pattern, err := schedule.ParsePattern(sel.Pattern, sel.Weekdays)
	if err != nil {
		return pricedLine{}, err
	}

	adjusted := false
	if adjust {
		pattern, adjusted = schedule.AdjustForPeriod(pattern, periodDays)
	}

	qty := schedule.Quantities{Primary: sel.Quantity}
	if pattern.Kind() == schedule.KindDay1Day2 && sel.AltQuantity != nil {
		qty.Secondary = *sel.AltQuantity
	}

	if err := schedule.CheckSelection(pattern, qty, periodDays); err != nil {
		return pricedLine{}, xerrors.Wrapf(err, "variant %d", sel.VariantID)
	}

	plan, err := schedule.Plan(start, periodDays, pattern, qty)
	if err != nil {
		return pricedLine{}, err
	}

	return pricedLine{selection: sel, pattern: pattern, qty: qty, adjusted: adjusted, plan: plan}, nil
}

// collaborators loads price tables and the wallet balance concurrently. Any
// failure fails the whole action.
func (s *SubscriptionService) collaborators(ctx context.Context, customerID int64, variantIDs []int64) (map[int64]pricing.PriceTable, decimal.Decimal, error) {
	var (
		tables  map[int64]pricing.PriceTable
		balance decimal.Decimal
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		tables, err = s.prices.FindPriceTables(ctx, variantIDs)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		balance, err = s.wallets.GetBalance(ctx, customerID)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, decimal.Zero, unavailable(err, "load prices and wallet balance")
	}

	return tables, balance, nil
}

func (l pricedLine) quoteLine(periodDays int) subscription.QuoteLine {
	line := subscription.QuoteLine{
		VariantID:           l.selection.VariantID,
		PeriodDays:          periodDays,
		Pattern:             l.pattern.Kind(),
		PatternAdjusted:     l.adjusted,
		Quantity:            l.qty.Primary,
		Weekdays:            schedule.WeekdayNumbers(l.pattern),
		DeliveryCount:       len(l.plan),
		DeliveryDescription: schedule.Describe(l.pattern, l.qty),
		Deliveries:          l.plan,
		UnitPrice:           l.unitPrice,
		MRP:                 l.mrp,
		Totals:              l.totals,
	}
	if l.pattern.Kind() == schedule.KindDay1Day2 {
		line.AltQuantity = lo.ToPtr(l.qty.Secondary)
	}
	return line
}

func entriesFor(sub *subscription.Subscription, plan []schedule.PlannedDelivery) []delivery.Entry {
	return lo.Map(plan, func(p schedule.PlannedDelivery, _ int) delivery.Entry {
		return delivery.Entry{
			SubscriptionID: sub.ID,
			CustomerID:     sub.CustomerID,
			VariantID:      sub.VariantID,
			DeliveryDate:   p.Date,
			Quantity:       p.Quantity,
			Status:         delivery.StatusPending,
		}
	})
}

func confirmed(sub *subscription.Subscription) subscription.ConfirmedSubscription {
	c := subscription.ConfirmedSubscription{
		ID:                    sub.ID,
		SubscriptionReference: sub.SubscriptionReference,
		VariantID:             sub.VariantID,
		Period:                sub.PeriodDays,
		StartDate:             sub.StartDate.Format(time.DateOnly),
		DeliverySchedule:      sub.Pattern,
		Qty:                   sub.Quantity,
		DeliveryCount:         sub.DeliveryCount,
		TotalAmount:           sub.TotalAmount,
	}
	if sub.AltQuantity.Valid {
		c.AltQty = lo.ToPtr(int(sub.AltQuantity.Int32))
	}
	if len(sub.Weekdays) > 0 {
		c.Weekdays = lo.Map(sub.Weekdays, func(d int32, _ int) int { return int(d) })
	}
	return c
}

func listPrice(pt pricing.PriceTable) *decimal.Decimal {
	if mrp, ok := pt.ListPrice(); ok {
		return &mrp
	}
	return nil
}

func variantUnavailable(id int64) error {
	return xerrors.Newf("variant %d not found", id).
		WithHintf("variant %d is not available", id).
		Mark(xerrors.ErrNotFound)
}
