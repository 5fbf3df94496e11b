// internal/service/delivery/delivery_service.go
package delivery

import (
	"context"
	"time"

	"dairy-subscription-service/internal/config"
	"dairy-subscription-service/internal/domain/delivery"
	"dairy-subscription-service/internal/domain/events"
	"dairy-subscription-service/internal/domain/schedule"
	"dairy-subscription-service/internal/domain/subscription"
	"dairy-subscription-service/internal/metrics"
	xerrors "dairy-subscription-service/internal/pkg/errors"
	"dairy-subscription-service/internal/service/refund"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type EntryRepository interface {
	FindByID(ctx context.Context, id int64) (*delivery.Entry, error)
	ListBySubscription(ctx context.Context, subscriptionID int64) ([]delivery.Entry, error)
	ApplyTransition(ctx context.Context, t delivery.Transition) (*delivery.Entry, bool, error)
	Manifest(ctx context.Context, date time.Time, status *delivery.Status) ([]delivery.ManifestLine, error)
}

type SubscriptionReader interface {
	FindByID(ctx context.Context, id int64) (*subscription.Subscription, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, topic string, payload any) error
}

type DeliveryService struct {
	entries   EntryRepository
	subs      SubscriptionReader
	publisher EventPublisher
	business  config.BusinessConfig
	metrics   metrics.SubscriptionMetrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewDeliveryService(
	entries EntryRepository,
	subs SubscriptionReader,
	publisher EventPublisher,
	business config.BusinessConfig,
	m metrics.SubscriptionMetrics,
	logger *zap.Logger,
) *DeliveryService {
	return &DeliveryService{
		entries:   entries,
		subs:      subs,
		publisher: publisher,
		business:  business,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *DeliveryService) today() time.Time {
	return schedule.Today(s.now(), s.business.Timezone)
}

// ListForSubscription returns a customer's entries for one subscription with
// display labels.
func (s *DeliveryService) ListForSubscription(ctx context.Context, customerID, subscriptionID int64) ([]delivery.EntryView, error) {
	sub, err := s.subs.FindByID(ctx, subscriptionID)
	if err != nil {
		return nil, unavailable(err, "load subscription")
	}
	if sub.CustomerID != customerID {
		return nil, xerrors.Newf("subscription %d not found", subscriptionID).Mark(xerrors.ErrNotFound)
	}

	entries, err := s.entries.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, unavailable(err, "load delivery entries")
	}
	return delivery.Views(entries, s.today()), nil
}

// Skip moves a customer's future PENDING entry to SKIPPED. The transition is
// a single conditional update, so of two concurrent skips exactly one wins.
func (s *DeliveryService) Skip(ctx context.Context, customerID, entryID int64) (*delivery.SkipResult, error) {
	today := s.today()

	entry, err := s.ownedEntry(ctx, customerID, entryID)
	if err != nil {
		return nil, err
	}
	if err := delivery.CheckSkip(entry, today); err != nil {
		s.metrics.IncSkipRejected(rejectReason(err))
		return nil, err
	}

	sub, err := s.subs.FindByID(ctx, entry.SubscriptionID)
	if err != nil {
		return nil, unavailable(err, "load subscription")
	}

	updated, ok, err := s.entries.ApplyTransition(ctx, delivery.Transition{
		EntryID:    entryID,
		To:         delivery.StatusSkipped,
		CustomerID: customerID,
		After:      &today,
		Reason:     "skipped by customer",
	})
	if err != nil {
		return nil, unavailable(err, "skip delivery")
	}
	if !ok {
		err := s.classify(ctx, entryID, func(e *delivery.Entry) error { return delivery.CheckSkip(e, today) })
		s.metrics.IncSkipRejected(rejectReason(err))
		return nil, err
	}

	amount := refund.Calculate(sub, updated)
	s.metrics.IncDeliveryTransition(string(delivery.StatusSkipped))
	s.publishSkipped(ctx, sub, updated, amount)

	s.logger.Info("delivery skipped",
		zap.Int64("entry_id", updated.ID),
		zap.Int64("subscription_id", updated.SubscriptionID),
		zap.Int64("customer_id", customerID),
		zap.Time("delivery_date", updated.DeliveryDate),
	)

	return &delivery.SkipResult{
		EntryID:      updated.ID,
		NewStatus:    updated.Status,
		RefundAmount: amount,
	}, nil
}

// MarkDelivered records a fulfilled delivery, dated today or earlier.
func (s *DeliveryService) MarkDelivered(ctx context.Context, entryID int64, channel delivery.FulfillmentChannel) (*delivery.Entry, error) {
	if channel == "" {
		channel = delivery.ChannelDoorstep
	}
	return s.fulfil(ctx, entryID, delivery.StatusDelivered, "", channel)
}

// MarkNotDelivered records a failed delivery attempt.
func (s *DeliveryService) MarkNotDelivered(ctx context.Context, entryID int64, reason string) (*delivery.Entry, error) {
	return s.fulfil(ctx, entryID, delivery.StatusNotDelivered, reason, "")
}

// Cancel withdraws a pending delivery administratively. Any date is allowed.
func (s *DeliveryService) Cancel(ctx context.Context, entryID int64, reason string) (*delivery.Entry, error) {
	return s.fulfil(ctx, entryID, delivery.StatusCancelled, reason, "")
}

// Manifest lists what is due on a date, optionally filtered by status.
func (s *DeliveryService) Manifest(ctx context.Context, filters *delivery.ManifestFilters) ([]delivery.ManifestLine, error) {
	date, err := time.Parse(time.DateOnly, filters.Date)
	if err != nil {
		return nil, xerrors.WithError(err).
			WithHint("date must be YYYY-MM-DD").
			Mark(xerrors.ErrValidation)
	}
	if filters.Status != nil && !filters.Status.Valid() {
		return nil, xerrors.Newf("unknown status %q", *filters.Status).Mark(xerrors.ErrValidation)
	}

	lines, err := s.entries.Manifest(ctx, date, filters.Status)
	if err != nil {
		return nil, unavailable(err, "load delivery manifest")
	}
	return lines, nil
}

func (s *DeliveryService) fulfil(ctx context.Context, entryID int64, to delivery.Status, reason string, channel delivery.FulfillmentChannel) (*delivery.Entry, error) {
	today := s.today()

	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return nil, unavailable(err, "load delivery entry")
	}
	if err := delivery.CheckFulfillment(entry, to, today); err != nil {
		return nil, err
	}

	t := delivery.Transition{EntryID: entryID, To: to, Reason: reason, Channel: channel}
	if to != delivery.StatusCancelled {
		t.NotAfter = &today
	}

	updated, ok, err := s.entries.ApplyTransition(ctx, t)
	if err != nil {
		return nil, unavailable(err, "update delivery entry")
	}
	if !ok {
		return nil, s.classify(ctx, entryID, func(e *delivery.Entry) error { return delivery.CheckFulfillment(e, to, today) })
	}

	s.metrics.IncDeliveryTransition(string(to))
	s.logger.Info("delivery status changed",
		zap.Int64("entry_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.String("channel", string(channel)),
	)
	return updated, nil
}

func (s *DeliveryService) ownedEntry(ctx context.Context, customerID, entryID int64) (*delivery.Entry, error) {
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return nil, unavailable(err, "load delivery entry")
	}
	if entry.CustomerID != customerID {
		return nil, xerrors.Newf("delivery entry %d not found", entryID).Mark(xerrors.ErrNotFound)
	}
	return entry, nil
}

// classify explains why a guarded update matched nothing: the entry changed
// between the read and the write.
func (s *DeliveryService) classify(ctx context.Context, entryID int64, check func(*delivery.Entry) error) error {
	current, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return unavailable(err, "reload delivery entry")
	}
	if err := check(current); err != nil {
		return err
	}
	return xerrors.Newf("delivery entry %d changed concurrently", entryID).
		WithHint("delivery was updated by another request, refresh and try again").
		Mark(xerrors.ErrConflict)
}

// publishSkipped announces the committed skip. A publish failure does not
// undo the skip.
func (s *DeliveryService) publishSkipped(ctx context.Context, sub *subscription.Subscription, e *delivery.Entry, amount *decimal.Decimal) {
	ev := events.DeliverySkipped{
		EventID:        ulid.Make().String(),
		EntryID:        e.ID,
		SubscriptionID: e.SubscriptionID,
		CustomerID:     e.CustomerID,
		DeliveryDate:   e.DeliveryDate,
		Quantity:       e.Quantity,
		UnitPrice:      sub.UnitPrice,
		RefundAmount:   decimal.Zero,
		OccurredAt:     s.now().UTC(),
	}
	if amount != nil {
		ev.RefundAmount = *amount
	}

	if err := s.publisher.PublishJSON(ctx, events.TopicDeliverySkipped, ev); err != nil {
		s.logger.Error("failed to publish delivery skipped event",
			zap.Int64("entry_id", e.ID),
			zap.String("refund_amount", ev.RefundAmount.String()),
			zap.Error(err),
		)
	}
}

func rejectReason(err error) string {
	switch {
	case xerrors.Is(err, xerrors.ErrConflict):
		return "conflict"
	case xerrors.Is(err, xerrors.ErrInvalidOperation):
		return "date_guard"
	default:
		return "other"
	}
}

func unavailable(err error, op string) error {
	if xerrors.HTTPStatus(err) < 500 {
		return err
	}
	return xerrors.WithError(err).WithMessage(op).Mark(xerrors.ErrUnavailable)
}
