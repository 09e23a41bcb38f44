package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrWalletNotFound      = errors.New("wallet not found")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 RETURNING id, user_id, balance_cents, currency, created_at, updated_at`,
		userID,
	).StructScan(w)

	if err != nil {
		return nil, err
	}

	return w, nil
}

// ledgerEntry describes one signed balance mutation. amountCents is the delta
// applied to the balance, so payments carry a negative amount.
type ledgerEntry struct {
	txType        TransactionType
	amountCents   int64
	description   string
	sessionID     *int
	paymentMethod *string
	referenceID   *string
}

// apply runs a ledger entry as a single transaction: lock the wallet row,
// guard the resulting balance, write the new balance and append the ledger
// row. The ledger is append-only; rows are never updated or deleted.
func (r *repository) apply(ctx context.Context, userID int, entry ledgerEntry) (*Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var w Wallet
	err = tx.QueryRowxContext(ctx,
		`SELECT id, user_id, balance_cents, currency, created_at, updated_at
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	).StructScan(&w)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowxContext(ctx,
				`INSERT INTO wallets (user_id)
				 VALUES ($1)
				 RETURNING id, user_id, balance_cents, currency, created_at, updated_at`,
				userID,
			).StructScan(&w)
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	newBalance := w.BalanceCents + entry.amountCents
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance_cents = $1, updated_at = NOW()
		 WHERE id = $2`,
		newBalance, w.ID,
	)
	if err != nil {
		return nil, err
	}

	var recorded Transaction
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO wallet_transactions (wallet_id, type, amount_cents, description, balance_after, session_id, payment_method, reference_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, wallet_id, type, amount_cents, description, balance_after, session_id, payment_method, reference_id, created_at`,
		w.ID, entry.txType, entry.amountCents, entry.description, newBalance,
		entry.sessionID, entry.paymentMethod, entry.referenceID,
	).StructScan(&recorded)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &recorded, nil
}

func (r *repository) TopUp(ctx context.Context, userID int, amountCents int64, paymentMethod, referenceID string) (*Transaction, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	entry := ledgerEntry{
		txType:      TypeTopUp,
		amountCents: amountCents,
		description: "wallet top-up",
	}
	if paymentMethod != "" {
		entry.paymentMethod = &paymentMethod
	}
	if referenceID != "" {
		entry.referenceID = &referenceID
	}

	return r.apply(ctx, userID, entry)
}

func (r *repository) Charge(ctx context.Context, userID, sessionID int, amountCents int64, description string) (*Transaction, error) {
	if amountCents < 0 {
		return nil, ErrInvalidAmount
	}

	return r.apply(ctx, userID, ledgerEntry{
		txType:      TypePayment,
		amountCents: -amountCents,
		description: description,
		sessionID:   &sessionID,
	})
}

func (r *repository) Refund(ctx context.Context, userID, sessionID int, amountCents int64, description string) (*Transaction, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	return r.apply(ctx, userID, ledgerEntry{
		txType:      TypeRefund,
		amountCents: amountCents,
		description: description,
		sessionID:   &sessionID,
	})
}

// Reconcile replays the ledger and checks it against the cached balance. The
// ledger is the source of truth; a drifted balance means a write bypassed the
// transactional apply path.
func (r *repository) Reconcile(ctx context.Context, userID int) (*ReconcileResult, error) {
	var res ReconcileResult
	err := r.db.GetContext(ctx, &res, `
		SELECT w.user_id, w.balance_cents, COALESCE(SUM(t.amount_cents), 0) AS ledger_cents
		FROM wallets w
		LEFT JOIN wallet_transactions t ON t.wallet_id = w.id
		WHERE w.user_id = $1
		GROUP BY w.user_id, w.balance_cents
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	res.Consistent = res.BalanceCents == res.LedgerCents
	return &res, nil
}

func (r *repository) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var walletID int
	err := r.db.GetContext(ctx, &walletID, `SELECT id FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []Transaction{}, nil
		}
		return nil, err
	}

	var txs []Transaction
	err = r.db.SelectContext(ctx, &txs, `
		SELECT id, wallet_id, type, amount_cents, description, balance_after, session_id, payment_method, reference_id, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
