package wallet

// internal/domain/wallet/entity.go

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionCheckoutDebit TransactionType = "checkout_debit"
	TransactionSkipRefund    TransactionType = "skip_refund"
)

// Wallet is a customer's prepaid balance.
type Wallet struct {
	CustomerID int64           `json:"customer_id" db:"customer_id"`
	Balance    decimal.Decimal `json:"balance" db:"balance"`
	Currency   string          `json:"currency" db:"currency"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Transaction is one ledger line. Reference is unique, which makes refund
// credits idempotent per delivery entry.
type Transaction struct {
	ID              int64           `json:"id" db:"id"`
	CustomerID      int64           `json:"customer_id" db:"customer_id"`
	TransactionType TransactionType `json:"transaction_type" db:"transaction_type"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after" db:"balance_after"`
	Reference       string          `json:"reference" db:"reference"`
	SubscriptionID  sql.NullInt64   `json:"subscription_id,omitempty" db:"subscription_id"`
	DeliveryEntryID sql.NullInt64   `json:"delivery_entry_id,omitempty" db:"delivery_entry_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

type WalletSummary struct {
	Balance            decimal.Decimal `json:"balance"`
	Currency           string          `json:"currency"`
	RecentTransactions []Transaction   `json:"recent_transactions"`
}
