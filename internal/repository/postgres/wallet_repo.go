// internal/repository/postgres/wallet_repo.go
package postgres

import (
	"context"
	"fmt"

	"dairy-subscription-service/internal/domain/wallet"
	xerrors "dairy-subscription-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type WalletRepository struct {
	db *DB
}

func NewWalletRepository(db *DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetWallet returns the customer's wallet; a customer without one has a zero balance.
func (r *WalletRepository) GetWallet(ctx context.Context, customerID int64, currency string) (*wallet.Wallet, error) {
	query := `SELECT customer_id, balance, currency, updated_at FROM wallets WHERE customer_id = $1`

	var w wallet.Wallet
	err := r.db.Querier(ctx).QueryRow(ctx, query, customerID).Scan(&w.CustomerID, &w.Balance, &w.Currency, &w.UpdatedAt)
	if xerrors.Is(err, pgx.ErrNoRows) {
		return &wallet.Wallet{CustomerID: customerID, Balance: decimal.Zero, Currency: currency}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// GetBalance returns the customer's wallet balance.
func (r *WalletRepository) GetBalance(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	w, err := r.GetWallet(ctx, customerID, "")
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

// Debit takes amount from the wallet if the balance covers it and records
// the ledger line. Run it inside WithTx.
func (r *WalletRepository) Debit(ctx context.Context, txn *wallet.Transaction) error {
	query := `
		UPDATE wallets
		SET balance = balance - $2, updated_at = NOW()
		WHERE customer_id = $1 AND balance >= $2
		RETURNING balance
	`
	err := r.db.Querier(ctx).QueryRow(ctx, query, txn.CustomerID, txn.Amount).Scan(&txn.BalanceAfter)
	if xerrors.Is(err, pgx.ErrNoRows) {
		return xerrors.New("wallet balance changed during checkout").
			WithHint("wallet balance is lower than the quoted deduction, please re-quote").
			Mark(xerrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}

	_, err = r.insertTransaction(ctx, txn)
	return err
}

// Credit adds amount to the wallet once per reference. It reports false when
// the reference was already applied. Run it inside WithTx.
func (r *WalletRepository) Credit(ctx context.Context, txn *wallet.Transaction, currency string) (bool, error) {
	inserted, err := r.insertTransaction(ctx, txn)
	if err != nil || !inserted {
		return false, err
	}

	query := `
		INSERT INTO wallets (customer_id, balance, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance
	`
	if err := r.db.Querier(ctx).QueryRow(ctx, query, txn.CustomerID, txn.Amount, currency).Scan(&txn.BalanceAfter); err != nil {
		return false, fmt.Errorf("failed to credit wallet: %w", err)
	}

	if _, err := r.db.Querier(ctx).Exec(ctx,
		`UPDATE wallet_transactions SET balance_after = $2 WHERE id = $1`, txn.ID, txn.BalanceAfter,
	); err != nil {
		return false, fmt.Errorf("failed to record balance after credit: %w", err)
	}
	return true, nil
}

// RecentTransactions returns the latest ledger lines, newest first.
func (r *WalletRepository) RecentTransactions(ctx context.Context, customerID int64, limit int) ([]wallet.Transaction, error) {
	query := `
		SELECT id, customer_id, transaction_type, amount, balance_after, reference,
		       subscription_id, delivery_entry_id, created_at
		FROM wallet_transactions
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Querier(ctx).Query(ctx, query, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	txns := []wallet.Transaction{}
	for rows.Next() {
		var t wallet.Transaction
		if err := rows.Scan(
			&t.ID, &t.CustomerID, &t.TransactionType, &t.Amount, &t.BalanceAfter, &t.Reference,
			&t.SubscriptionID, &t.DeliveryEntryID, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *WalletRepository) insertTransaction(ctx context.Context, txn *wallet.Transaction) (bool, error) {
	query := `
		INSERT INTO wallet_transactions (
			customer_id, transaction_type, amount, balance_after, reference,
			subscription_id, delivery_entry_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (reference) DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.Querier(ctx).QueryRow(ctx, query,
		txn.CustomerID, txn.TransactionType, txn.Amount, txn.BalanceAfter, txn.Reference,
		txn.SubscriptionID, txn.DeliveryEntryID,
	).Scan(&txn.ID, &txn.CreatedAt)
	if xerrors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record wallet transaction: %w", err)
	}
	return true, nil
}
