package wallet

import (
	"context"
	"errors"
	"testing"

	"dairy-subscription-service/internal/domain/wallet"
	xerrors "dairy-subscription-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	wallet *wallet.Wallet
	txns   []wallet.Transaction
	limit  int
	err    error
}

func (f *fakeRepo) GetWallet(_ context.Context, customerID int64, currency string) (*wallet.Wallet, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.wallet == nil {
		return &wallet.Wallet{CustomerID: customerID, Balance: decimal.Zero, Currency: currency}, nil
	}
	return f.wallet, nil
}

func (f *fakeRepo) RecentTransactions(_ context.Context, _ int64, limit int) ([]wallet.Transaction, error) {
	f.limit = limit
	return f.txns, nil
}

func TestSummary(t *testing.T) {
	repo := &fakeRepo{
		wallet: &wallet.Wallet{CustomerID: 1, Balance: decimal.NewFromInt(96), Currency: "INR"},
		txns:   []wallet.Transaction{{ID: 3, TransactionType: wallet.TransactionSkipRefund, Amount: decimal.NewFromInt(96)}},
	}

	got, err := NewWalletService(repo, "INR").Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(96).Equal(got.Balance))
	assert.Equal(t, "INR", got.Currency)
	assert.Len(t, got.RecentTransactions, 1)
	assert.Equal(t, recentTransactionsLimit, repo.limit)
}

func TestSummary_NoWalletYet(t *testing.T) {
	got, err := NewWalletService(&fakeRepo{}, "INR").Summary(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
	assert.Equal(t, "INR", got.Currency)
}

func TestSummary_StoreFailure(t *testing.T) {
	_, err := NewWalletService(&fakeRepo{err: errors.New("timeout")}, "INR").Summary(context.Background(), 9)
	assert.True(t, xerrors.Is(err, xerrors.ErrUnavailable))
}
