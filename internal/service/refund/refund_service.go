// internal/service/refund/refund_service.go
package refund

import (
	"context"
	"database/sql"
	"fmt"

	"dairy-subscription-service/internal/domain/delivery"
	"dairy-subscription-service/internal/domain/events"
	"dairy-subscription-service/internal/domain/subscription"
	"dairy-subscription-service/internal/domain/wallet"
	"dairy-subscription-service/internal/metrics"
	xerrors "dairy-subscription-service/internal/pkg/errors"
	"dairy-subscription-service/internal/pubsub"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Calculate returns the refund owed for skipping e, or nil when nothing was
// collected for the subscription yet.
func Calculate(sub *subscription.Subscription, e *delivery.Entry) *decimal.Decimal {
	if sub == nil || e == nil || !sub.PaymentStatus.Settled() {
		return nil
	}
	amount := decimal.NewFromInt(int64(e.Quantity)).Mul(sub.UnitPrice)
	if !amount.IsPositive() {
		return nil
	}
	return &amount
}

// Reference is the ledger reference of a skip refund. It is unique per entry.
func Reference(entryID int64) string {
	return fmt.Sprintf("skip-refund:%d", entryID)
}

type WalletCreditor interface {
	Credit(ctx context.Context, txn *wallet.Transaction, currency string) (bool, error)
}

type SubscriptionRefunds interface {
	MarkRefunded(ctx context.Context, id int64) error
}

type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type RefundService struct {
	wallets  WalletCreditor
	subs     SubscriptionRefunds
	db       TxManager
	currency string
	metrics  metrics.SubscriptionMetrics
	logger   *zap.Logger
}

func NewRefundService(
	wallets WalletCreditor,
	subs SubscriptionRefunds,
	db TxManager,
	currency string,
	m metrics.SubscriptionMetrics,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		wallets:  wallets,
		subs:     subs,
		db:       db,
		currency: currency,
		metrics:  m,
		logger:   logger,
	}
}

// CreditSkipRefund credits the wallet for a skipped delivery. Replays of the
// same event are no-ops; it reports whether money moved.
func (s *RefundService) CreditSkipRefund(ctx context.Context, ev events.DeliverySkipped) (bool, error) {
	if !ev.RefundAmount.IsPositive() {
		return false, nil
	}

	credited := false
	err := s.db.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.wallets.Credit(ctx, &wallet.Transaction{
			CustomerID:      ev.CustomerID,
			TransactionType: wallet.TransactionSkipRefund,
			Amount:          ev.RefundAmount,
			Reference:       Reference(ev.EntryID),
			SubscriptionID:  sql.NullInt64{Int64: ev.SubscriptionID, Valid: true},
			DeliveryEntryID: sql.NullInt64{Int64: ev.EntryID, Valid: true},
		}, s.currency)
		if err != nil || !ok {
			return err
		}
		credited = true
		return s.subs.MarkRefunded(ctx, ev.SubscriptionID)
	})
	if err != nil {
		return false, xerrors.Wrapf(err, "credit refund for entry %d", ev.EntryID)
	}

	if credited {
		s.metrics.IncRefundCredited(s.currency)
		s.logger.Info("skip refund credited",
			zap.Int64("entry_id", ev.EntryID),
			zap.Int64("customer_id", ev.CustomerID),
			zap.String("amount", ev.RefundAmount.String()),
		)
	} else {
		s.logger.Debug("skip refund already applied", zap.Int64("entry_id", ev.EntryID))
	}
	return credited, nil
}

// Handle consumes delivery.skipped events.
func (s *RefundService) Handle(msg *message.Message) error {
	var ev events.DeliverySkipped
	if err := pubsub.Decode(msg, &ev); err != nil {
		// A payload that cannot be decoded will never succeed; ack it.
		s.logger.Error("dropping undecodable skip event", zap.String("message_uuid", msg.UUID), zap.Error(err))
		return nil
	}

	_, err := s.CreditSkipRefund(msg.Context(), ev)
	return err
}
