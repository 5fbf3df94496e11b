// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"dairy-subscription-service/internal/domain/subscription"
	xerrors "dairy-subscription-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `
	id, subscription_reference, checkout_reference,
	customer_id, variant_id, delivery_address_id,
	period_days, pattern, quantity, alt_quantity, weekdays,
	start_date, end_date, delivery_count, total_quantity,
	unit_price, mrp, total_amount, savings, wallet_amount, amount_payable, currency,
	payment_status, created_at, updated_at`

type SubscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a subscription. Run it inside WithTx together with its entries.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			subscription_reference, checkout_reference,
			customer_id, variant_id, delivery_address_id,
			period_days, pattern, quantity, alt_quantity, weekdays,
			start_date, end_date, delivery_count, total_quantity,
			unit_price, mrp, total_amount, savings, wallet_amount, amount_payable, currency,
			payment_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Querier(ctx).QueryRow(
		ctx, query,
		sub.SubscriptionReference, sub.CheckoutReference,
		sub.CustomerID, sub.VariantID, sub.DeliveryAddressID,
		sub.PeriodDays, sub.Pattern, sub.Quantity, sub.AltQuantity, sub.Weekdays,
		sub.StartDate, sub.EndDate, sub.DeliveryCount, sub.TotalQuantity,
		sub.UnitPrice, sub.MRP, sub.TotalAmount, sub.Savings, sub.WalletAmount, sub.AmountPayable, sub.Currency,
		sub.PaymentStatus,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// FindByID retrieves a subscription by ID
func (r *SubscriptionRepository) FindByID(ctx context.Context, id int64) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if xerrors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.Newf("subscription %d not found", id).Mark(xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return sub, nil
}

// ListByCustomer retrieves a customer's subscriptions with filters
func (r *SubscriptionRepository) ListByCustomer(ctx context.Context, customerID int64, filters *subscription.SubscriptionListFilters) ([]subscription.Subscription, int64, error) {
	conditions := []string{"customer_id = $1"}
	args := []interface{}{customerID}
	argPos := 2

	if filters.PaymentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", argPos))
		args = append(args, *filters.PaymentStatus)
		argPos++
	}

	if filters.ActiveOn != "" {
		conditions = append(conditions, fmt.Sprintf("$%d::date BETWEEN start_date AND end_date", argPos))
		args = append(args, filters.ActiveOn)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM subscriptions WHERE %s", whereClause)
	var total int64
	if err := r.db.Querier(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	// Pagination
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM subscriptions
		WHERE %s
		ORDER BY start_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, subscriptionColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subscriptions := []subscription.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subscriptions = append(subscriptions, *sub)
	}

	return subscriptions, total, rows.Err()
}

// UpdatePaymentStatusByCheckout moves every subscription of a checkout to
// status, guarded on the current status. Returns the number of rows changed.
func (r *SubscriptionRepository) UpdatePaymentStatusByCheckout(ctx context.Context, checkoutReference string, from, to subscription.PaymentStatus) (int64, error) {
	query := `
		UPDATE subscriptions
		SET payment_status = $3, updated_at = NOW()
		WHERE checkout_reference = $1 AND payment_status = $2
	`
	tag, err := r.db.Querier(ctx).Exec(ctx, query, checkoutReference, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to update payment status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkRefunded flags a paid subscription as partially refunded.
func (r *SubscriptionRepository) MarkRefunded(ctx context.Context, id int64) error {
	query := `
		UPDATE subscriptions
		SET payment_status = $2, updated_at = NOW()
		WHERE id = $1 AND payment_status = $3
	`
	_, err := r.db.Querier(ctx).Exec(ctx, query, id, subscription.PaymentStatusRefundedPartial, subscription.PaymentStatusPaid)
	if err != nil {
		return fmt.Errorf("failed to mark subscription refunded: %w", err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := row.Scan(
		&sub.ID, &sub.SubscriptionReference, &sub.CheckoutReference,
		&sub.CustomerID, &sub.VariantID, &sub.DeliveryAddressID,
		&sub.PeriodDays, &sub.Pattern, &sub.Quantity, &sub.AltQuantity, &sub.Weekdays,
		&sub.StartDate, &sub.EndDate, &sub.DeliveryCount, &sub.TotalQuantity,
		&sub.UnitPrice, &sub.MRP, &sub.TotalAmount, &sub.Savings, &sub.WalletAmount, &sub.AmountPayable, &sub.Currency,
		&sub.PaymentStatus, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
