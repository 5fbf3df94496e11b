// internal/service/wallet/wallet_service.go
package wallet

import (
	"context"

	"dairy-subscription-service/internal/domain/wallet"
	xerrors "dairy-subscription-service/internal/pkg/errors"
)

const recentTransactionsLimit = 20

type WalletRepository interface {
	GetWallet(ctx context.Context, customerID int64, currency string) (*wallet.Wallet, error)
	RecentTransactions(ctx context.Context, customerID int64, limit int) ([]wallet.Transaction, error)
}

type WalletService struct {
	repo     WalletRepository
	currency string
}

func NewWalletService(repo WalletRepository, currency string) *WalletService {
	return &WalletService{repo: repo, currency: currency}
}

// Summary returns the balance with the latest ledger lines. A customer
// without a wallet has a zero balance.
func (s *WalletService) Summary(ctx context.Context, customerID int64) (*wallet.WalletSummary, error) {
	w, err := s.repo.GetWallet(ctx, customerID, s.currency)
	if err != nil {
		return nil, xerrors.WithError(err).WithMessage("load wallet").Mark(xerrors.ErrUnavailable)
	}

	txns, err := s.repo.RecentTransactions(ctx, customerID, recentTransactionsLimit)
	if err != nil {
		return nil, xerrors.WithError(err).WithMessage("load wallet transactions").Mark(xerrors.ErrUnavailable)
	}

	return &wallet.WalletSummary{
		Balance:            w.Balance,
		Currency:           w.Currency,
		RecentTransactions: txns,
	}, nil
}
