package wallet

import "context"

type Repository interface {
	GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error)
	TopUp(ctx context.Context, userID int, amountCents int64, paymentMethod, referenceID string) (*Transaction, error)
	Charge(ctx context.Context, userID, sessionID int, amountCents int64, description string) (*Transaction, error)
	Refund(ctx context.Context, userID, sessionID int, amountCents int64, description string) (*Transaction, error)
	GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error)
	Reconcile(ctx context.Context, userID int) (*ReconcileResult, error)
}
