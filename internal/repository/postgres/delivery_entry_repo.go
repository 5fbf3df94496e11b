// internal/repository/postgres/delivery_entry_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dairy-subscription-service/internal/domain/delivery"
	xerrors "dairy-subscription-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

const entryColumns = `
	id, subscription_id, customer_id, variant_id,
	delivery_date, quantity, status, fulfillment_channel, status_reason, status_changed_at,
	created_at, updated_at`

type DeliveryEntryRepository struct {
	db *DB
}

func NewDeliveryEntryRepository(db *DB) *DeliveryEntryRepository {
	return &DeliveryEntryRepository{db: db}
}

// BulkInsert copies a subscription's planned entries in one round trip.
func (r *DeliveryEntryRepository) BulkInsert(ctx context.Context, entries []delivery.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{e.SubscriptionID, e.CustomerID, e.VariantID, e.DeliveryDate, e.Quantity, string(e.Status)}
	}

	n, err := r.db.Querier(ctx).CopyFrom(
		ctx,
		pgx.Identifier{"delivery_entries"},
		[]string{"subscription_id", "customer_id", "variant_id", "delivery_date", "quantity", "status"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery entries: %w", err)
	}
	if int(n) != len(entries) {
		return fmt.Errorf("inserted %d of %d delivery entries", n, len(entries))
	}
	return nil
}

// FindByID retrieves a delivery entry by ID
func (r *DeliveryEntryRepository) FindByID(ctx context.Context, id int64) (*delivery.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM delivery_entries WHERE id = $1`

	e, err := scanEntry(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if xerrors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.Newf("delivery entry %d not found", id).Mark(xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find delivery entry: %w", err)
	}
	return e, nil
}

// ListBySubscription returns entries ordered by delivery date.
func (r *DeliveryEntryRepository) ListBySubscription(ctx context.Context, subscriptionID int64) ([]delivery.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM delivery_entries
		WHERE subscription_id = $1
		ORDER BY delivery_date, id`

	rows, err := r.db.Querier(ctx).Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery entries: %w", err)
	}
	defer rows.Close()

	entries := []delivery.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ApplyTransition performs a guarded PENDING -> t.To update. It reports
// false, with no error, when the guard matched no row; the caller re-reads
// the entry to find out why.
func (r *DeliveryEntryRepository) ApplyTransition(ctx context.Context, t delivery.Transition) (*delivery.Entry, bool, error) {
	query, args := transitionQuery(t)

	e, err := scanEntry(r.db.Querier(ctx).QueryRow(ctx, query, args...))
	if xerrors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to update delivery entry: %w", err)
	}
	return e, true, nil
}

// transitionQuery builds the guarded update. The status and date guards live
// in the WHERE clause so two concurrent transitions cannot both match.
func transitionQuery(t delivery.Transition) (string, []interface{}) {
	conditions := []string{"id = $1", "status = $2"}
	args := []interface{}{t.EntryID, delivery.StatusPending, t.To, nullString(t.Reason), nullString(string(t.Channel))}
	argPos := 6

	if t.CustomerID != 0 {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, t.CustomerID)
		argPos++
	}
	if t.After != nil {
		conditions = append(conditions, fmt.Sprintf("delivery_date > $%d", argPos))
		args = append(args, *t.After)
		argPos++
	}
	if t.NotAfter != nil {
		conditions = append(conditions, fmt.Sprintf("delivery_date <= $%d", argPos))
		args = append(args, *t.NotAfter)
	}

	query := fmt.Sprintf(`
		UPDATE delivery_entries
		SET status = $3,
		    status_reason = $4,
		    fulfillment_channel = $5,
		    status_changed_at = NOW(),
		    updated_at = NOW()
		WHERE %s
		RETURNING %s
	`, strings.Join(conditions, " AND "), entryColumns)

	return query, args
}

// Manifest lists the entries due on date across all subscriptions.
func (r *DeliveryEntryRepository) Manifest(ctx context.Context, date time.Time, status *delivery.Status) ([]delivery.ManifestLine, error) {
	conditions := []string{"e.delivery_date = $1"}
	args := []interface{}{date}
	if status != nil {
		conditions = append(conditions, "e.status = $2")
		args = append(args, *status)
	}

	query := fmt.Sprintf(`
		SELECT e.id, e.subscription_id, e.customer_id, s.delivery_address_id,
		       e.variant_id, e.quantity, e.delivery_date, e.status
		FROM delivery_entries e
		JOIN subscriptions s ON s.id = e.subscription_id
		WHERE %s
		ORDER BY s.delivery_address_id, e.variant_id, e.id
	`, strings.Join(conditions, " AND "))

	rows, err := r.db.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery manifest: %w", err)
	}
	defer rows.Close()

	lines := []delivery.ManifestLine{}
	for rows.Next() {
		var l delivery.ManifestLine
		if err := rows.Scan(
			&l.EntryID, &l.SubscriptionID, &l.CustomerID, &l.DeliveryAddressID,
			&l.VariantID, &l.Quantity, &l.DeliveryDate, &l.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan manifest line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanEntry(row pgx.Row) (*delivery.Entry, error) {
	var e delivery.Entry
	err := row.Scan(
		&e.ID, &e.SubscriptionID, &e.CustomerID, &e.VariantID,
		&e.DeliveryDate, &e.Quantity, &e.Status, &e.FulfillmentChannel, &e.StatusReason, &e.StatusChangedAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
