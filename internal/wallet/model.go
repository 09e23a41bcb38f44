package wallet

import "time"

type TransactionType string

const (
	TypeTopUp   TransactionType = "topup"
	TypePayment TransactionType = "payment"
	TypeRefund  TransactionType = "refund"
)

type Wallet struct {
	ID           int       `db:"id" json:"id"`
	UserID       int       `db:"user_id" json:"user_id"`
	BalanceCents int64     `db:"balance_cents" json:"balance_cents"`
	Currency     string    `db:"currency" json:"currency"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ReconcileResult compares a wallet's cached balance against the replayed
// ledger. Consistent wallets have LedgerCents == BalanceCents.
type ReconcileResult struct {
	UserID       int   `db:"user_id" json:"user_id"`
	BalanceCents int64 `db:"balance_cents" json:"balance_cents"`
	LedgerCents  int64 `db:"ledger_cents" json:"ledger_cents"`
	Consistent   bool  `db:"-" json:"consistent"`
}

// Transaction is one row of the append-only ledger. AmountCents is the signed
// delta applied to the balance: positive for topup and refund, negative for
// payment. BalanceAfter records the balance the wallet held once the row was
// written, so the ledger can be replayed and reconciled.
type Transaction struct {
	ID            int             `db:"id" json:"id"`
	WalletID      int             `db:"wallet_id" json:"wallet_id"`
	Type          TransactionType `db:"type" json:"type"`
	AmountCents   int64           `db:"amount_cents" json:"amount_cents"`
	Description   string          `db:"description" json:"description"`
	BalanceAfter  int64           `db:"balance_after" json:"balance_after"`
	SessionID     *int            `db:"session_id" json:"session_id,omitempty"`
	PaymentMethod *string         `db:"payment_method" json:"payment_method,omitempty"`
	ReferenceID   *string         `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

type TopUpRequest struct {
	AmountCents   int64  `json:"amount_cents" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required,oneof=card fpx ewallet"`
	ReferenceID   string `json:"reference_id"`
}
