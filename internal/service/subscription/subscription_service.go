// internal/service/subscription/subscription_service.go
package subscription

import (
	"context"
	"math"
	"time"

	"dairy-subscription-service/internal/config"
	"dairy-subscription-service/internal/domain/delivery"
	"dairy-subscription-service/internal/domain/pricing"
	"dairy-subscription-service/internal/domain/schedule"
	"dairy-subscription-service/internal/domain/subscription"
	"dairy-subscription-service/internal/domain/wallet"
	"dairy-subscription-service/internal/metrics"
	xerrors "dairy-subscription-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *subscription.Subscription) error
	FindByID(ctx context.Context, id int64) (*subscription.Subscription, error)
	ListByCustomer(ctx context.Context, customerID int64, filters *subscription.SubscriptionListFilters) ([]subscription.Subscription, int64, error)
	UpdatePaymentStatusByCheckout(ctx context.Context, checkoutReference string, from, to subscription.PaymentStatus) (int64, error)
}

type EntryRepository interface {
	BulkInsert(ctx context.Context, entries []delivery.Entry) error
	ListBySubscription(ctx context.Context, subscriptionID int64) ([]delivery.Entry, error)
}

type PriceTableSource interface {
	FindPriceTables(ctx context.Context, variantIDs []int64) (map[int64]pricing.PriceTable, error)
}

type WalletStore interface {
	GetBalance(ctx context.Context, customerID int64) (decimal.Decimal, error)
	Debit(ctx context.Context, txn *wallet.Transaction) error
}

type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type SubscriptionService struct {
	subscriptionRepo SubscriptionRepository
	entryRepo        EntryRepository
	prices           PriceTableSource
	wallets          WalletStore
	db               TxManager
	business         config.BusinessConfig
	metrics          metrics.SubscriptionMetrics
	logger           *zap.Logger
	now              func() time.Time
}

func NewSubscriptionService(
	subscriptionRepo SubscriptionRepository,
	entryRepo EntryRepository,
	prices PriceTableSource,
	wallets WalletStore,
	db TxManager,
	business config.BusinessConfig,
	m metrics.SubscriptionMetrics,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		entryRepo:        entryRepo,
		prices:           prices,
		wallets:          wallets,
		db:               db,
		business:         business,
		metrics:          m,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *SubscriptionService) today() time.Time {
	return schedule.Today(s.now(), s.business.Timezone)
}

// GetSubscription returns a customer's subscription with its entries and
// their display labels for today.
func (s *SubscriptionService) GetSubscription(ctx context.Context, customerID, id int64) (*subscription.Subscription, error) {
	sub, err := s.subscriptionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, unavailable(err, "load subscription")
	}
	if sub.CustomerID != customerID {
		return nil, xerrors.Newf("subscription %d not found", id).Mark(xerrors.ErrNotFound)
	}

	entries, err := s.entryRepo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, unavailable(err, "load delivery entries")
	}
	sub.Deliveries = delivery.Views(entries, s.today())

	return sub, nil
}

// ListSubscriptions lists the customer's subscriptions, newest first.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, customerID int64, filters *subscription.SubscriptionListFilters) (*subscription.SubscriptionListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	subs, total, err := s.subscriptionRepo.ListByCustomer(ctx, customerID, filters)
	if err != nil {
		return nil, unavailable(err, "list subscriptions")
	}

	return &subscription.SubscriptionListResponse{
		Subscriptions: subs,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    int(math.Ceil(float64(total) / float64(filters.PageSize))),
	}, nil
}

// MarkCheckoutPaid records a settled payment for every subscription of a
// checkout. Settling is what makes later skips refundable.
func (s *SubscriptionService) MarkCheckoutPaid(ctx context.Context, checkoutReference string) error {
	n, err := s.subscriptionRepo.UpdatePaymentStatusByCheckout(ctx, checkoutReference, subscription.PaymentStatusPending, subscription.PaymentStatusPaid)
	if err != nil {
		return unavailable(err, "update payment status")
	}
	if n == 0 {
		return xerrors.Newf("no pending subscriptions for checkout %s", checkoutReference).
			WithHint("checkout is unknown or already settled").
			Mark(xerrors.ErrConflict)
	}

	s.logger.Info("checkout marked paid",
		zap.String("checkout_reference", checkoutReference),
		zap.Int64("subscriptions", n),
	)
	return nil
}

// unavailable marks collaborator failures as retryable, leaving already
// classified errors untouched.
func unavailable(err error, op string) error {
	if xerrors.HTTPStatus(err) < 500 {
		return err
	}
	return xerrors.WithError(err).WithMessage(op).Mark(xerrors.ErrUnavailable)
}
